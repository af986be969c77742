package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/wolfman30/studio-leads/internal/leads"
)

// Rendered is the content of one notification email.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type row struct {
	Label string
	Value string
}

type section struct {
	Title string
	Rows  []row
}

type view struct {
	Heading    string
	LeadID     string
	Type       string
	Source     string
	SourcePage string
	Submitted  string
	Rows       []row
	Sections   []section
	UTM        []row
}

const metaBlock = `{{define "meta"}}<table cellpadding="4" style="color:#666;font-size:12px">
<tr><td>Lead ID</td><td>{{.LeadID}}</td></tr>
<tr><td>Type</td><td>{{.Type}}</td></tr>
{{if .Source}}<tr><td>Form</td><td>{{.Source}}</td></tr>{{end}}
{{if .SourcePage}}<tr><td>Page</td><td>{{.SourcePage}}</td></tr>{{end}}
{{if .Submitted}}<tr><td>Submitted</td><td>{{.Submitted}}</td></tr>{{end}}
</table>
{{if .UTM}}<h3>Attribution</h3>
<table cellpadding="4">{{range .UTM}}<tr><td><b>{{.Label}}</b></td><td>{{.Value}}</td></tr>{{end}}</table>
{{end}}{{end}}`

const rowsBlock = `{{define "rows"}}<table cellpadding="6" style="border-collapse:collapse">
{{range .}}<tr><td style="vertical-align:top"><b>{{.Label}}</b></td><td style="white-space:pre-wrap">{{.Value}}</td></tr>
{{end}}</table>{{end}}`

var (
	// quick and callback
	contactHTML = htmltemplate.Must(htmltemplate.New("contact").Parse(metaBlock + rowsBlock + `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>{{.Heading}}</h2>
{{template "rows" .Rows}}
<hr>
{{template "meta" .}}
</body></html>`))

	briefHTML = htmltemplate.Must(htmltemplate.New("brief").Parse(metaBlock + rowsBlock + `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>{{.Heading}}</h2>
{{range .Sections}}<h3>{{.Title}}</h3>
{{template "rows" .Rows}}
{{end}}<hr>
{{template "meta" .}}
</body></html>`))

	plainText = texttemplate.Must(texttemplate.New("text").Parse(`{{.Heading}}
{{range .Rows}}
{{.Label}}: {{.Value}}{{end}}{{range .Sections}}

{{.Title}}
{{range .Rows}}{{.Label}}: {{.Value}}
{{end}}{{end}}
--
Lead ID: {{.LeadID}}
Type: {{.Type}}{{if .Source}}
Form: {{.Source}}{{end}}{{if .SourcePage}}
Page: {{.SourcePage}}{{end}}{{if .Submitted}}
Submitted: {{.Submitted}}{{end}}{{if .UTM}}

Attribution{{range .UTM}}
{{.Label}}: {{.Value}}{{end}}{{end}}
`))
)

// Render builds the subject and both bodies for sub. Absent fields are
// left out entirely.
func Render(sub leads.Submission) (Rendered, error) {
	v := view{
		LeadID:     sub.ID,
		Type:       string(sub.Type),
		Source:     sub.Source,
		SourcePage: sub.SourcePage,
		UTM:        utmRows(sub.UTM),
	}
	if !sub.Timestamp.IsZero() {
		v.Submitted = sub.Timestamp.UTC().Format("2006-01-02 15:04 MST")
	}

	var subject string
	tmpl := contactHTML
	switch sub.Type {
	case leads.TypeQuick:
		subject = "New request from " + sub.Name
		v.Heading = "New quick request"
		v.Rows = rows(
			row{"Name", sub.Name},
			row{"Phone", sub.Phone},
			row{"Email", sub.Email},
			row{"Telegram", sub.Telegram},
			row{"Message", sub.Message},
		)
	case leads.TypeCallback:
		subject = "Callback request from " + sub.Name
		v.Heading = "Callback requested"
		v.Rows = rows(
			row{"Name", sub.Name},
			row{"Phone", sub.Phone},
			row{"Message", sub.Message},
		)
	case leads.TypeBrief:
		subject = "New project brief from " + sub.Name
		v.Heading = "New project brief"
		tmpl = briefHTML
		v.Sections = sections(
			section{"Contact", rows(
				row{"Name", sub.Name},
				row{"Phone", sub.Phone},
				row{"Email", sub.Email},
				row{"Telegram", sub.Telegram},
			)},
			section{"Project", rows(
				row{"Site type", sub.SiteType},
				row{"Goal", sub.Goal},
				row{"Timeline", sub.Timeline},
				row{"Budget", sub.Budget},
			)},
			section{"Additional", rows(
				row{"References", sub.References},
				row{"Comment", sub.Comment},
			)},
		)
	default:
		return Rendered{}, fmt.Errorf("email: %w: %q", leads.ErrUnknownType, sub.Type)
	}

	var html, text bytes.Buffer
	if err := tmpl.Execute(&html, v); err != nil {
		return Rendered{}, fmt.Errorf("email: render html: %w", err)
	}
	if err := plainText.Execute(&text, v); err != nil {
		return Rendered{}, fmt.Errorf("email: render text: %w", err)
	}
	return Rendered{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

func rows(in ...row) []row {
	out := make([]row, 0, len(in))
	for _, r := range in {
		if strings.TrimSpace(r.Value) != "" {
			out = append(out, r)
		}
	}
	return out
}

func sections(in ...section) []section {
	out := make([]section, 0, len(in))
	for _, s := range in {
		if len(s.Rows) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// utmRows is empty unless utm_source is set; other parameters alone are noise.
func utmRows(u leads.UTM) []row {
	if strings.TrimSpace(u.Source) == "" {
		return nil
	}
	return rows(
		row{"Source", u.Source},
		row{"Medium", u.Medium},
		row{"Campaign", u.Campaign},
		row{"Term", u.Term},
		row{"Content", u.Content},
	)
}
