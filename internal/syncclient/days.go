package syncclient

import (
	"time"

	"tracker-service/internal/models"
)

// DayGroup is a run of consecutive messages sharing a calendar day.
type DayGroup struct {
	Date     string
	Messages []models.ChatMessage
}

// GroupByDay splits chronological messages into calendar-day runs in loc.
// It does not mutate msgs.
func GroupByDay(msgs []models.ChatMessage, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	groups := []DayGroup{}
	for _, msg := range msgs {
		date := msg.Timestamp.In(loc).Format("2006-01-02")
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].Messages = append(groups[n-1].Messages, msg)
			continue
		}
		groups = append(groups, DayGroup{Date: date, Messages: []models.ChatMessage{msg}})
	}
	return groups
}

// FilterConversation keeps the messages sent by self or partner. A zero
// partner keeps everything.
func FilterConversation(msgs []models.ChatMessage, self, partner int) []models.ChatMessage {
	if partner == 0 {
		return msgs
	}
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.SenderID == partner || (self != 0 && msg.SenderID == self) {
			out = append(out, msg)
		}
	}
	return out
}
