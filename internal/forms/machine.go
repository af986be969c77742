// Package forms drives a lead form through idle, loading, success and error.
package forms

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/studio-leads/internal/drafts"
	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/submit"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// State is the lifecycle position of a form.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

var (
	// ErrBusy is returned while a submission is in flight.
	ErrBusy = errors.New("forms: submission in progress")
	// ErrNotIdle is returned when an action needs a different state.
	ErrNotIdle = errors.New("forms: form is not idle")
)

// Submitter sends validated fields. *submit.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, t leads.Type, fields leads.Fields) submit.Result
}

// Config wires a Machine.
type Config struct {
	Type      leads.Type
	Submitter Submitter
	Validator *leads.Validator
	// Drafts is optional; forms without it do not autosave.
	Drafts    *drafts.Store
	Logger    *logging.Logger
	OnStart   func()
	OnSuccess func(leadID string)
}

// View is a copy of the form for rendering.
type View struct {
	State   State
	Values  map[string]string
	Errors  leads.FieldErrors
	Message string
	LeadID  string
}

// Busy reports whether inputs should be disabled.
func (v View) Busy() bool { return v.State == StateLoading }

// Machine is one mounted form instance. It is safe for concurrent use.
type Machine struct {
	typ       leads.Type
	submitter Submitter
	validator *leads.Validator
	drafts    *drafts.Store
	logger    *logging.Logger
	onStart   func()
	onSuccess func(string)

	mu        sync.Mutex
	state     State
	values    map[string]string
	touched   map[string]bool
	errs      leads.FieldErrors
	message   string
	leadID    string
	started   bool
	restored  bool
	observers []func(from, to State)
}

type transition struct{ from, to State }

// New returns an idle Machine.
func New(cfg Config) (*Machine, error) {
	if !cfg.Type.Valid() {
		return nil, leads.ErrUnknownType
	}
	if cfg.Submitter == nil {
		return nil, errors.New("forms: submitter required")
	}
	v := cfg.Validator
	if v == nil {
		v = leads.NewValidator("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		typ:       cfg.Type,
		submitter: cfg.Submitter,
		validator: v,
		drafts:    cfg.Drafts,
		logger:    logger,
		onStart:   cfg.OnStart,
		onSuccess: cfg.OnSuccess,
		state:     StateIdle,
		values:    map[string]string{},
		touched:   map[string]bool{},
		errs:      leads.FieldErrors{},
	}, nil
}

// Type returns the form kind.
func (m *Machine) Type() leads.Type { return m.typ }

// OnTransition registers fn to be called after every state change.
func (m *Machine) OnTransition(fn func(from, to State)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Focus marks the visitor's first interaction. OnStart fires only once.
func (m *Machine) Focus(field string) {
	m.mu.Lock()
	first := !m.started
	m.started = true
	m.mu.Unlock()
	if first && m.onStart != nil {
		m.onStart()
	}
}

// Change records a field value, clears its error and autosaves the form.
// A sent form is read-only until Reset.
func (m *Machine) Change(field, value string) error {
	m.mu.Lock()
	switch m.state {
	case StateIdle, StateError:
	case StateLoading:
		m.mu.Unlock()
		return ErrBusy
	default:
		m.mu.Unlock()
		return ErrNotIdle
	}
	m.values[field] = value
	m.touched[field] = true
	delete(m.errs, field)
	snapshot := m.copyValues()
	m.mu.Unlock()

	if m.drafts != nil {
		m.drafts.Save(m.kind(), drafts.Draft(snapshot))
	}
	return nil
}

// Blur validates a single field against the whole form.
func (m *Machine) Blur(field string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.validator.ValidateField(m.typ, field, m.values)
	if msg == "" {
		delete(m.errs, field)
	} else {
		m.errs[field] = msg
	}
	return msg
}

// Restore applies the saved draft the first time it is called. Fields the
// visitor already touched keep their values.
func (m *Machine) Restore(ctx context.Context) bool {
	m.mu.Lock()
	if m.restored || m.drafts == nil {
		m.restored = true
		m.mu.Unlock()
		return false
	}
	m.restored = true
	m.mu.Unlock()

	draft, ok := m.drafts.Load(ctx, m.kind())
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return false
	}
	m.values = drafts.Apply(draft, m.values, m.touched)
	return true
}

// Submit validates and sends the form. Invalid input leaves the form idle
// with field errors and returns a *leads.ValidationError without touching
// the network.
func (m *Machine) Submit(ctx context.Context) (submit.Result, error) {
	m.mu.Lock()
	switch m.state {
	case StateIdle:
	case StateLoading:
		m.mu.Unlock()
		return submit.Result{}, ErrBusy
	default:
		m.mu.Unlock()
		return submit.Result{}, ErrNotIdle
	}

	res := m.validator.Validate(m.typ, m.values)
	if !res.OK() {
		m.errs = res.Errors
		m.mu.Unlock()
		return submit.Result{}, &leads.ValidationError{Fields: res.Errors}
	}
	m.errs = leads.FieldErrors{}
	m.message = ""
	t := m.setState(StateLoading)
	m.mu.Unlock()
	m.notify(t)

	out := m.submitter.Submit(ctx, m.typ, *res.Data)

	m.mu.Lock()
	if out.OK {
		m.leadID = out.ID
		t = m.setState(StateSuccess)
	} else {
		m.message = out.Message
		if m.message == "" {
			m.message = submit.FailureMessage
		}
		t = m.setState(StateError)
	}
	m.mu.Unlock()

	if out.OK {
		m.logger.Info("form submitted", "type", m.typ, "lead_id", out.ID)
		if m.drafts != nil {
			if err := m.drafts.Clear(ctx, m.kind()); err != nil {
				m.logger.Warn("draft clear failed", "type", m.typ, "error", err)
			}
		}
	} else {
		m.logger.Warn("form submission failed", "type", m.typ, "status", out.StatusCode, "error", out.Err)
	}
	m.notify(t)
	if out.OK && m.onSuccess != nil {
		m.onSuccess(out.ID)
	}
	return out, nil
}

// Retry returns a failed form to idle. Values are kept.
func (m *Machine) Retry() error {
	m.mu.Lock()
	if m.state != StateError {
		m.mu.Unlock()
		return ErrNotIdle
	}
	m.message = ""
	t := m.setState(StateIdle)
	m.mu.Unlock()
	m.notify(t)
	return nil
}

// Reset empties a successful form so another request can be sent.
func (m *Machine) Reset() error {
	m.mu.Lock()
	if m.state != StateSuccess {
		m.mu.Unlock()
		return ErrNotIdle
	}
	m.values = map[string]string{}
	m.touched = map[string]bool{}
	m.errs = leads.FieldErrors{}
	m.leadID = ""
	t := m.setState(StateIdle)
	m.mu.Unlock()
	m.notify(t)
	return nil
}

// View returns a snapshot for rendering.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	errs := make(leads.FieldErrors, len(m.errs))
	for k, v := range m.errs {
		errs[k] = v
	}
	return View{
		State:   m.state,
		Values:  m.copyValues(),
		Errors:  errs,
		Message: m.message,
		LeadID:  m.leadID,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) kind() drafts.Kind { return drafts.Kind(m.typ) }

// setState must be called with mu held.
func (m *Machine) setState(to State) transition {
	t := transition{from: m.state, to: to}
	m.state = to
	return t
}

func (m *Machine) notify(t transition) {
	m.mu.Lock()
	observers := append([]func(from, to State){}, m.observers...)
	m.mu.Unlock()
	for _, fn := range observers {
		fn(t.from, t.to)
	}
}

func (m *Machine) copyValues() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
