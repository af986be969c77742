package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	appconfig "github.com/wolfman30/studio-leads/internal/config"
	"github.com/wolfman30/studio-leads/internal/drafts"
	"github.com/wolfman30/studio-leads/internal/forms"
	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/submit"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

type options struct {
	formType string
	landing  string
	source   string
	page     string
}

// errAborted means input ended before the form was sent. The draft is kept.
var errAborted = errors.New("input closed before the form was sent")

var formFields = map[leads.Type][]string{
	leads.TypeQuick: {
		leads.FieldName, leads.FieldPhone, leads.FieldEmail, leads.FieldTelegram, leads.FieldMessage,
	},
	leads.TypeBrief: {
		leads.FieldName, leads.FieldPhone, leads.FieldEmail, leads.FieldTelegram,
		leads.FieldSiteType, leads.FieldGoal, leads.FieldTimeline, leads.FieldBudget,
		leads.FieldReferences, leads.FieldComment,
	},
	leads.TypeCallback: {
		leads.FieldName, leads.FieldPhone, leads.FieldMessage,
	},
}

var fieldLabels = map[string]string{
	leads.FieldName:       "Name",
	leads.FieldPhone:      "Phone",
	leads.FieldEmail:      "Email",
	leads.FieldTelegram:   "Telegram",
	leads.FieldMessage:    "Message",
	leads.FieldSiteType:   "Site type",
	leads.FieldGoal:       "Goal",
	leads.FieldTimeline:   "Timeline",
	leads.FieldBudget:     "Budget",
	leads.FieldReferences: "References",
	leads.FieldComment:    "Comment",
}

// prompter reads one answer per line. A blank answer keeps the current value
// and a single "-" clears it.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(label, current string) (string, bool, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", false, err
		}
		return "", false, errAborted
	}
	answer := strings.TrimSpace(p.in.Text())
	switch answer {
	case "":
		return current, false, nil
	case "-":
		return "", true, nil
	}
	return answer, true, nil
}

func (p *prompter) confirm(question string) (bool, error) {
	answer, _, err := p.ask(question+" [y/N]", "")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func run(ctx context.Context, cfg *appconfig.Config, opts options, storage drafts.Storage, in io.Reader, out io.Writer, logger *logging.Logger) error {
	typ := leads.Type(opts.formType)
	fields, ok := formFields[typ]
	if !ok {
		return fmt.Errorf("unknown form type %q", opts.formType)
	}

	store := drafts.NewStore(storage, logger, drafts.WithDebounce(cfg.DraftDebounce))
	// Whatever was typed survives an abrupt exit.
	defer store.Flush()

	attribution := submit.NewAttribution(ctx, storage)
	if opts.landing != "" {
		if err := attribution.CaptureUTM(ctx, opts.landing); err != nil {
			fmt.Fprintf(out, "Ignoring landing URL: %v\n", err)
		}
	}

	client, err := submit.New(submit.Config{
		Endpoint:    cfg.LeadEndpoint,
		Source:      opts.source,
		SourcePage:  opts.page,
		Attribution: attribution,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	machine, err := forms.New(forms.Config{
		Type:      typ,
		Submitter: client,
		Validator: leads.NewValidator(cfg.PhoneDefaultRegion),
		Drafts:    store,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	machine.OnTransition(func(from, to forms.State) {
		if to == forms.StateLoading {
			fmt.Fprintln(out, "Sending...")
		}
	})

	if machine.Restore(ctx) {
		fmt.Fprintln(out, "Restored your unsent answers. Press Enter to keep a value or type - to clear it.")
	}

	p := &prompter{in: bufio.NewScanner(in), out: out}
	pending := fields
	for {
		if err := fill(machine, p, pending); err != nil {
			return err
		}

		res, err := machine.Submit(ctx)
		var verr *leads.ValidationError
		switch {
		case errors.As(err, &verr):
			pending = invalidFields(fields, verr.Fields, machine.View().Values)
			if len(pending) == 0 {
				return verr
			}
			for _, f := range pending {
				if msg := verr.Fields[f]; msg != "" {
					fmt.Fprintf(out, "  %s: %s\n", fieldLabels[f], msg)
				}
			}
			continue
		case err != nil:
			return err
		}

		if res.OK {
			view := machine.View()
			fmt.Fprintf(out, "Thank you! Your request was sent (id %s).\n", view.LeadID)
			return nil
		}

		fmt.Fprintln(out, machine.View().Message)
		again, err := p.confirm("Try again?")
		if err != nil {
			return err
		}
		if !again {
			return errors.New("submission failed")
		}
		if err := machine.Retry(); err != nil {
			return err
		}
		pending = nil
	}
}

// fill asks for each field once. Format problems are shown on blur; missing
// values are left to the submit-time check so cross-field rules see the
// whole form.
func fill(m *forms.Machine, p *prompter, fields []string) error {
	for _, field := range fields {
		m.Focus(field)
		value, changed, err := p.ask(fieldLabels[field], m.View().Values[field])
		if err != nil {
			return err
		}
		if changed {
			if err := m.Change(field, value); err != nil {
				return err
			}
		}
		if msg := m.Blur(field); msg != "" && value != "" {
			fmt.Fprintf(p.out, "  %s\n", msg)
		}
	}
	return nil
}

// invalidFields lists the fields to ask again, in form order. A missing
// contact on a quick form can be fixed with either phone or email.
func invalidFields(order []string, errs leads.FieldErrors, values map[string]string) []string {
	var out []string
	for _, f := range order {
		if _, ok := errs[f]; ok {
			out = append(out, f)
			continue
		}
		if f == leads.FieldEmail && values[leads.FieldPhone] == "" && values[leads.FieldEmail] == "" {
			if _, ok := errs[leads.FieldPhone]; ok {
				out = append(out, f)
			}
		}
	}
	return out
}
