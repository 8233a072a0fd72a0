// Package format renders dates and prices for user-facing Russian text.
package format

import (
	"fmt"
	"strings"
	"time"
)

var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

var monthGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// DateFull renders "Пн, 2 июня".
func DateFull(d time.Time) string {
	return fmt.Sprintf("%s, %d %s", weekdayShort[d.Weekday()], d.Day(), monthGenitive[d.Month()-1])
}

// DateShort renders "02.06".
func DateShort(d time.Time) string {
	return d.Format("02.01")
}

// Price renders a ruble amount with dot-separated thousands: "1.500 ₽".
func Price(price float64) string {
	n := int64(price)
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		parts = append([]string{s}, parts...)
		s = strings.Join(parts, ".")
	}
	return s + " ₽"
}
