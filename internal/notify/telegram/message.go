package telegram

import (
	"fmt"
	"strings"

	"github.com/wolfman30/studio-leads/internal/leads"
)

// Character budgets for long free text.
const (
	ReferencesBudget = 200
	CommentBudget    = 300
	MessageBudget    = 500
)

type line struct {
	label string
	value string
}

// Render builds the MarkdownV2 text for sub. User input is truncated first
// and escaped after, so an escape sequence is never cut in half.
func Render(sub leads.Submission) (string, error) {
	var (
		title string
		lines []line
	)
	switch sub.Type {
	case leads.TypeQuick:
		title = "🔔 New request"
		lines = []line{
			{"Name", sub.Name},
			{"Phone", sub.Phone},
			{"Email", sub.Email},
			{"Telegram", sub.Telegram},
			{"Message", Truncate(sub.Message, MessageBudget)},
		}
	case leads.TypeCallback:
		title = "📞 Callback request"
		lines = []line{
			{"Name", sub.Name},
			{"Phone", sub.Phone},
			{"Message", Truncate(sub.Message, MessageBudget)},
		}
	case leads.TypeBrief:
		title = "📝 New project brief"
		lines = []line{
			{"Name", sub.Name},
			{"Phone", sub.Phone},
			{"Email", sub.Email},
			{"Telegram", sub.Telegram},
			{"", ""},
			{"Site type", sub.SiteType},
			{"Goal", sub.Goal},
			{"Timeline", sub.Timeline},
			{"Budget", sub.Budget},
			{"References", Truncate(sub.References, ReferencesBudget)},
			{"Comment", Truncate(sub.Comment, CommentBudget)},
		}
	default:
		return "", fmt.Errorf("telegram: %w: %q", leads.ErrUnknownType, sub.Type)
	}

	var b strings.Builder
	b.WriteString("*" + Escape(title) + "*\n")
	blank := false
	for _, l := range lines {
		if l.label == "" {
			blank = true
			continue
		}
		if strings.TrimSpace(l.value) == "" {
			continue
		}
		if blank {
			b.WriteByte('\n')
			blank = false
		}
		fmt.Fprintf(&b, "\n*%s:* %s", Escape(l.label), Escape(l.value))
	}

	if src := strings.TrimSpace(sub.UTM.Source); src != "" {
		utm := []string{src}
		for _, v := range []string{sub.UTM.Medium, sub.UTM.Campaign} {
			if strings.TrimSpace(v) != "" {
				utm = append(utm, v)
			}
		}
		fmt.Fprintf(&b, "\n\n*UTM:* %s", Escape(strings.Join(utm, " / ")))
	}
	if sub.SourcePage != "" || sub.Source != "" {
		fmt.Fprintf(&b, "\n_Form:_ %s", Escape(strings.TrimSpace(sub.Source+" "+sub.SourcePage)))
	}
	fmt.Fprintf(&b, "\n_ID:_ %s", Escape(sub.ID))
	return b.String(), nil
}
