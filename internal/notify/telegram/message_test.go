package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/studio-leads/internal/leads"
)

func TestRender_Quick(t *testing.T) {
	text, err := Render(leads.Submission{
		ID:     "lead-1",
		Type:   leads.TypeQuick,
		Source: "hero",
		Fields: leads.Fields{Name: "Anna", Phone: "+15551234567", Telegram: "@anna_studio"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "*🔔 New request*"))
	assert.Contains(t, text, `*Name:* Anna`)
	assert.Contains(t, text, `*Phone:* \+15551234567`)
	assert.Contains(t, text, `*Telegram:* @anna\_studio`)
	assert.Contains(t, text, `_ID:_ lead\-1`)
	assert.NotContains(t, text, "Email")
	assert.NotContains(t, text, "Message")
	assert.NotContains(t, text, "UTM")
}

func TestRender_UserInputIsEscaped(t *testing.T) {
	hostile := "*bold* _it_ [link](http://x.y) `code` ~s~ >q #h +-=|{}.!\\"
	text, err := Render(leads.Submission{
		ID:     "lead-2",
		Type:   leads.TypeCallback,
		Fields: leads.Fields{Name: "Anna", Phone: "1234567890", Message: hostile},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "*Message:* "+Escape(hostile))

	// Only our own markup (bold labels, italic footer) may stay unescaped.
	userPart := text[strings.Index(text, "*Message:* ")+len("*Message:* "):]
	userPart = userPart[:strings.Index(userPart, "\n")]
	assert.Equal(t, -1, unescaped(userPart))
}

func TestRender_BriefTruncatesLongText(t *testing.T) {
	comment := strings.Repeat("c", 5000)
	refs := strings.Repeat("r", 450)
	text, err := Render(leads.Submission{
		ID:   "lead-3",
		Type: leads.TypeBrief,
		Fields: leads.Fields{
			Name: "Anna", Phone: "1234567890", SiteType: "landing", Goal: "sales",
			References: refs, Comment: comment,
		},
	})
	require.NoError(t, err)

	assert.Contains(t, text, "*Comment:* "+strings.Repeat("c", CommentBudget)+"…")
	assert.NotContains(t, text, strings.Repeat("c", CommentBudget+1))
	assert.Contains(t, text, "*References:* "+strings.Repeat("r", ReferencesBudget)+"…")
	assert.Contains(t, text, `*Site type:* landing`)
	assert.NotContains(t, text, "Budget")
}

func TestRender_UTMOnlyWithSource(t *testing.T) {
	sub := leads.Submission{
		ID:     "lead-4",
		Type:   leads.TypeCallback,
		Fields: leads.Fields{Name: "Anna", Phone: "1234567890"},
		UTM:    leads.UTM{Medium: "cpc"},
	}
	text, err := Render(sub)
	require.NoError(t, err)
	assert.NotContains(t, text, "UTM")

	sub.UTM.Source = "google"
	sub.UTM.Campaign = "spring-sale"
	text, err = Render(sub)
	require.NoError(t, err)
	assert.Contains(t, text, `*UTM:* google / cpc / spring\-sale`)
}

func TestRender_UnknownType(t *testing.T) {
	_, err := Render(leads.Submission{Type: "survey"})
	assert.ErrorIs(t, err, leads.ErrUnknownType)
}
