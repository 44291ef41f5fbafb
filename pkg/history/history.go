// Package history selects recent interactions and renders them as dialogue
// context.
package history

import (
	"slices"
	"time"

	"github.com/haivivi/julesvoice/pkg/genx"
	"github.com/haivivi/julesvoice/pkg/interaction"
)

// DefaultLookback is the window used when none is configured.
const DefaultLookback = 30 * time.Minute

// TimeLayout formats the time of a past interaction.
const TimeLayout = "15:04:05"

// Select returns the interactions answered within [now-lookback, now],
// oldest first. It does not modify interactions.
func Select(interactions []*interaction.Interaction, now time.Time, lookback time.Duration) []*interaction.Interaction {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	from := now.Add(-lookback)

	var kept []*interaction.Interaction
	for _, it := range interactions {
		if it == nil || it.Response == "" {
			continue
		}
		if it.Timestamp.Before(from) || it.Timestamp.After(now) {
			continue
		}
		kept = append(kept, it)
	}
	slices.SortStableFunc(kept, func(a, b *interaction.Interaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return kept
}

// Window renders the selected interactions as alternating user and model
// messages. Each user turn is prefixed with the local time it was made.
func Window(interactions []*interaction.Interaction, now time.Time, lookback time.Duration) []*genx.Message {
	kept := Select(interactions, now, lookback)
	msgs := make([]*genx.Message, 0, 2*len(kept))
	for _, it := range kept {
		msgs = append(msgs,
			&genx.Message{
				Role:    genx.RoleUser,
				Payload: genx.Contents{genx.Text(UserText(it))},
			},
			&genx.Message{
				Role:    genx.RoleModel,
				Payload: genx.Contents{genx.Text(it.Response)},
			},
		)
	}
	return msgs
}

// UserText is the user turn recorded for a past interaction.
func UserText(it *interaction.Interaction) string {
	return "[Past Interaction " + it.Timestamp.Local().Format(TimeLayout) + "] " + it.Text
}
