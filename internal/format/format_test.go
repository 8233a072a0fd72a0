package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 ₽"},
		{500, "500 ₽"},
		{1500, "1.500 ₽"},
		{4500.75, "4.500 ₽"},
		{1234567, "1.234.567 ₽"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Price(tt.in))
	}
}

func TestDateFull(t *testing.T) {
	// 2026-09-05 is a Saturday.
	d := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Сб, 5 сентября", DateFull(d))
	assert.Equal(t, "05.09", DateShort(d))
}
