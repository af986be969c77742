package leads

import (
	"strings"
	"time"
)

// Type selects the form schema and the notification templates.
type Type string

const (
	TypeQuick    Type = "quick"
	TypeBrief    Type = "brief"
	TypeCallback Type = "callback"
)

// Valid reports whether t is a known lead type.
func (t Type) Valid() bool {
	switch t {
	case TypeQuick, TypeBrief, TypeCallback:
		return true
	}
	return false
}

// UTM holds campaign attribution captured from the landing URL.
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Empty reports whether no attribution was captured.
func (u UTM) Empty() bool {
	return u == UTM{}
}

// Fields are the visitor-entered values of any lead form after validation.
// Which of them are meaningful depends on the lead Type.
type Fields struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Telegram string `json:"telegram,omitempty"`

	// quick / callback
	Message string `json:"message,omitempty"`

	// brief
	SiteType   string `json:"siteType,omitempty"`
	Goal       string `json:"goal,omitempty"`
	Timeline   string `json:"timeline,omitempty"`
	Budget     string `json:"budget,omitempty"`
	References string `json:"references,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// Submission is the canonical payload produced by any lead form. It is passed
// by value and never modified after it is assembled; a retry builds a new one.
type Submission struct {
	ID         string    `json:"id,omitempty"`
	Type       Type      `json:"type"`
	Source     string    `json:"source,omitempty"`
	SourcePage string    `json:"sourcePage,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	Fields
	UTM

	// PhoneE164 is derived during validation when the phone parses.
	PhoneE164 string `json:"-"`
}

// WithID returns a copy of the submission carrying the boundary-assigned id.
func (s Submission) WithID(id string) Submission {
	s.ID = id
	return s
}

// Values flattens the form fields into the raw string map the schemas accept.
func (s Submission) Values() map[string]string {
	return s.Fields.Values()
}

// Values returns the non-empty fields keyed by their JSON names.
func (f Fields) Values() map[string]string {
	out := map[string]string{}
	set := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			out[key] = value
		}
	}
	set(FieldName, f.Name)
	set(FieldEmail, f.Email)
	set(FieldPhone, f.Phone)
	set(FieldTelegram, f.Telegram)
	set(FieldMessage, f.Message)
	set(FieldSiteType, f.SiteType)
	set(FieldGoal, f.Goal)
	set(FieldTimeline, f.Timeline)
	set(FieldBudget, f.Budget)
	set(FieldReferences, f.References)
	set(FieldComment, f.Comment)
	return out
}

// Lead is an accepted submission as stored by a Repository.
type Lead struct {
	Submission
	CreatedAt time.Time `json:"created_at"`
}
