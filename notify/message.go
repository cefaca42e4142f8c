// Package notify turns alert decisions into outbound messages. The
// engine only decides "fire alert for event E with offset D"; everything
// here is presentation and delivery.
package notify

import (
	"fmt"
	"time"

	"github.com/warp/opex-engine/calendar"
)

// Message is the webhook payload: plain content plus optional embeds.
type Message struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

const (
	colorToday    = 0xE74C3C // red: event day
	colorUpcoming = 0xFF5733 // orange: D-N reminder
	colorPreview  = 0x3498DB // blue: weekly preview
)

// EventAlert builds the message for a fired D-N alert.
func EventAlert(ev calendar.Event, offsetDays int, firedAt time.Time) Message {
	title, detail := describe(ev)

	color := colorUpcoming
	content := fmt.Sprintf("🔔 %s in %d day(s): %s", title, offsetDays, formatDate(ev.EventDate()))
	if offsetDays == 0 {
		color = colorToday
		content = fmt.Sprintf("🚨 %s TODAY: %s", title, formatDate(ev.EventDate()))
	}

	embed := Embed{
		Title:       fmt.Sprintf("📅 %s", title),
		Description: detail,
		Color:       color,
		Fields: []EmbedField{
			{Name: "Date", Value: formatDate(ev.EventDate()), Inline: true},
			{Name: "Days Until", Value: fmt.Sprintf("%d", offsetDays), Inline: true},
		},
		Timestamp: firedAt.UTC().Format(time.RFC3339),
	}
	if notes := ev.EventNotes(); notes != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Notes", Value: notes})
	}

	return Message{Content: content, Embeds: []Embed{embed}}
}

// WeeklyPreview builds the Sunday-evening digest of the coming window.
func WeeklyPreview(events []calendar.Event, start, end calendar.TimePoint, firedAt time.Time) Message {
	embed := Embed{
		Title:       "📊 Weekly OPEX Preview",
		Description: fmt.Sprintf("Events from %s through %s", formatDate(start), formatDate(end)),
		Color:       colorPreview,
		Timestamp:   firedAt.UTC().Format(time.RFC3339),
	}

	for _, ev := range events {
		title, detail := describe(ev)
		value := formatDate(ev.EventDate())
		if detail != "" {
			value += "\n" + detail
		}
		if days := calendar.DaysBetween(start, ev.EventDate()); days > 0 {
			value += fmt.Sprintf("\n(%d days away)", days)
		}
		embed.Fields = append(embed.Fields, EmbedField{Name: title, Value: value})
	}

	content := fmt.Sprintf("📆 %d event(s) in the coming week", len(events))
	return Message{Content: content, Embeds: []Embed{embed}}
}

// describe renders the kind-specific title and detail line. The switch
// is exhaustive over the closed kind set.
func describe(ev calendar.Event) (title, detail string) {
	switch e := ev.(type) {
	case calendar.StandardExpiration:
		return "Monthly Options Expiration", "Standard equity/index/ETF expiration"
	case calendar.VixExpiration:
		return "VIX Options Expiration", fmt.Sprintf("Last trading day %s", formatDate(e.LastTradingDay))
	case calendar.AmSettledLastTradingDay:
		return "AM-Settled Last Trading Day", fmt.Sprintf("Settlement on %s", formatDate(e.ExpirationDate))
	case calendar.LeapsAddition:
		return "LEAPS Addition", fmt.Sprintf("%d LEAPS series listed", e.LeapsYear)
	case calendar.EndOfMonthQuarter:
		return "Quarter-End Expiration", "End-of-month quarterly expiration"
	case calendar.ExchangeHoliday:
		return fmt.Sprintf("Market Holiday: %s", e.Name), fmt.Sprintf("Exchange closed (%s)", e.DayOfWeek)
	default:
		// Unreachable for the closed kind set.
		return string(ev.EventKind()), ""
	}
}

func formatDate(tp calendar.TimePoint) string {
	return fmt.Sprintf("%s, %s %d, %d", tp.Weekday(), tp.Month(), tp.Day(), tp.Year())
}
