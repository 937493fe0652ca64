package summary

import (
	"fmt"
	"strings"

	"github.com/arosenfeld2003/lockstep/internal/llm"
)

var instructions = map[Type]string{
	TypeStatus:      "Summarise where RSVPs stand in two sentences.",
	TypeBlockers:    "Name what is stopping the organiser from locking in plans. Be specific about blocks with many pending or maybe answers. Two sentences at most.",
	TypeSuggestions: "Give the organiser up to three short, practical next steps as a plain list.",
	TypeNudge:       "Write a friendly one or two sentence reminder the organiser can send to guests who have not responded. Do not include a greeting with a name.",
}

// BuildPrompt renders the RSVP counts into a prompt for the summary type.
func BuildPrompt(req Request) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", req.EventTitle)
	fmt.Fprintf(&b, "Guests: %d total, %d responded, %d pending\n", req.TotalGuests, req.RespondedCount, req.PendingCount)
	fmt.Fprintf(&b, "Days until event: %d\n", req.DaysUntilEvent)
	if len(req.BlockSummaries) > 0 {
		b.WriteString("Blocks:\n")
		for _, bs := range req.BlockSummaries {
			fmt.Fprintf(&b, "- %s: %d in, %d maybe, %d out, %d pending\n", bs.Name, bs.In, bs.Maybe, bs.Out, bs.Pending)
		}
	}
	b.WriteString("\n")
	b.WriteString(instructions[req.SummaryType])

	maxTokens := 160
	if req.SummaryType == TypeSuggestions {
		maxTokens = 240
	}
	return llm.Prompt{
		System:      "You help people organise group events. You are brief and never invent numbers.",
		User:        b.String(),
		MaxTokens:   maxTokens,
		Temperature: 0.5,
	}
}

// Fallback computes a canned summary from the counts alone.
func Fallback(req Request) string {
	switch req.SummaryType {
	case TypeBlockers:
		if req.PendingCount == 0 {
			return "Nothing is blocking you. Everyone has responded."
		}
		if worst, ok := mostPending(req.BlockSummaries); ok {
			return fmt.Sprintf("%s still waiting on a reply. %s has the most open answers (%d).",
				guests(req.PendingCount), worst.Name, worst.Pending+worst.Maybe)
		}
		return fmt.Sprintf("%s still waiting on a reply.", guests(req.PendingCount))
	case TypeSuggestions:
		if req.PendingCount == 0 {
			return "Everyone has responded. Share the final plan with your guests."
		}
		if req.DaysUntilEvent <= 7 {
			return fmt.Sprintf("Message the %d pending guests directly today. Lock in numbers for anything that needs a booking.", req.PendingCount)
		}
		return fmt.Sprintf("Send a reminder to the %d guests who haven't responded.", req.PendingCount)
	case TypeNudge:
		return fmt.Sprintf("Hey! Just a reminder to RSVP for %s. %s", req.EventTitle, daysLeft(req.DaysUntilEvent))
	default:
		return fmt.Sprintf("%d of %d guests have responded, %d still pending. %s",
			req.RespondedCount, req.TotalGuests, req.PendingCount, daysLeft(req.DaysUntilEvent))
	}
}

func mostPending(blocks []BlockSummary) (BlockSummary, bool) {
	var worst BlockSummary
	found := false
	for _, b := range blocks {
		if open := b.Pending + b.Maybe; open > 0 && (!found || open > worst.Pending+worst.Maybe) {
			worst, found = b, true
		}
	}
	return worst, found
}

func guests(n int) string {
	if n == 1 {
		return "1 guest is"
	}
	return fmt.Sprintf("%d guests are", n)
}

func daysLeft(days int) string {
	switch {
	case days < 0:
		return "The event has started."
	case days == 0:
		return "It's today!"
	case days == 1:
		return "It's tomorrow!"
	default:
		return fmt.Sprintf("%d days to go.", days)
	}
}
