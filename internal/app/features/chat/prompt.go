package chat

import (
	"fmt"
	"strings"

	"github.com/Pythagora-io/okrtracker/internal/app/system/htmlsanitize"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
)

// BuildPrompt assembles the single-string context the completer receives:
// the week's goals and results with HTML flattened out, the prior
// conversation, and the current question. History passed in already includes
// the just-saved user turn.
func BuildPrompt(g *models.WeekGoal, history []models.ChatMessage, currentMessage string) string {
	goalsText := htmlsanitize.StripTags(g.GoalsContent)
	resultsText := "Not submitted yet"
	if g.ResultsContent != "" {
		resultsText = htmlsanitize.StripTags(g.ResultsContent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an AI assistant helping to analyze weekly goals and results for an OKR (Objectives and Key Results) tracking system.

Week Period: %s to %s

Goals for this week:
%s

Results submitted:
%s

`, g.WeekStart.Format("Mon Jan 02 2006"), g.WeekEnd.Format("Mon Jan 02 2006"), goalsText, resultsText)

	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, msg := range history {
			role := "Assistant"
			if msg.Role == models.ChatRoleUser {
				role = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
		}
	}

	fmt.Fprintf(&b, `
User's current question: %s

Please provide a helpful, insightful response based on the goals and results provided. Focus on:
- Analyzing progress and achievements
- Identifying patterns or areas for improvement
- Providing constructive feedback
- Answering specific questions about the data

Keep your response concise and actionable.`, currentMessage)

	return b.String()
}
