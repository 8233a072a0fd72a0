package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/format"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// BuildMessage renders one user's matches as a single HTML notification:
// slots grouped by location and date, a price footnote, and booking links.
func BuildMessage(matches []Match) string {
	type group struct {
		location string
		date     string // ISO, for ordering
		match    []Match
	}

	grouped := make(map[QueryKey][]Match)
	for _, m := range matches {
		k := QueryKey{Location: m.Location, Date: m.Date.Format(subscription.DateLayout)}
		grouped[k] = append(grouped[k], m)
	}

	groups := make([]group, 0, len(grouped))
	for k, ms := range grouped {
		groups = append(groups, group{location: k.Location, date: k.Date, match: ms})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].location != groups[j].location {
			return groups[i].location < groups[j].location
		}
		return groups[i].date < groups[j].date
	})

	parts := []string{"<b><u>👋 Появились новые свободные корты!</u></b>"}
	locations := make(map[string]struct{})
	for _, g := range groups {
		locations[g.location] = struct{}{}

		lines := make([]string, 0, len(g.match))
		for _, m := range g.match {
			details := make([]string, 0, len(m.Courts))
			for _, c := range m.Courts {
				details = append(details, fmt.Sprintf("%s - %s", c.Name, format.Price(c.Price)))
			}
			lines = append(lines, fmt.Sprintf("• <b>%s</b>: %s", m.Label, strings.Join(details, " | ")))
		}
		sort.Strings(lines)

		parts = append(parts, fmt.Sprintf("\n🎾 <b>%s</b> (%s)\n%s",
			g.location, format.DateFull(g.match[0].Date), strings.Join(lines, "\n")))
	}

	parts = append(parts, "\n*<i>Цена указана за час</i>")

	if links := bookingLinks(locations); len(links) > 0 {
		parts = append(parts, "\n🔗 "+strings.Join(links, " | "))
	}
	return strings.Join(parts, "\n")
}

// bookingLinks renders one link per distinct booking URL. With a single link
// the location name is omitted.
func bookingLinks(locations map[string]struct{}) []string {
	seen := make(map[string]string) // url -> first location name
	var order []string
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		loc, ok := config.GetLocation(name)
		if !ok || loc.BookingLink == "" {
			continue
		}
		if _, dup := seen[loc.BookingLink]; !dup {
			seen[loc.BookingLink] = name
			order = append(order, loc.BookingLink)
		}
	}

	if len(order) == 1 {
		return []string{fmt.Sprintf(`<a href="%s">Забронировать</a>`, order[0])}
	}
	links := make([]string, 0, len(order))
	for _, url := range order {
		links = append(links, fmt.Sprintf(`<a href="%s">Забронировать (%s)</a>`, url, seen[url]))
	}
	return links
}
