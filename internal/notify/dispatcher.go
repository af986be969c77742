package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/observability/metrics"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// DefaultChannelTimeout bounds a single channel send.
const DefaultChannelTimeout = 10 * time.Second

var dispatchTracer = otel.Tracer("studio.internal.notify.dispatch")

// Dispatcher fans a lead out to every channel concurrently.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout overrides DefaultChannelTimeout.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithMetrics records per-channel outcomes.
func WithMetrics(m *metrics.LeadMetrics) Option {
	return func(disp *Dispatcher) { disp.metrics = m }
}

// NewDispatcher builds a dispatcher. Nil channels are dropped, and so is any
// channel whose name is already taken since outcomes are reported by name.
func NewDispatcher(channels []Channel, logger *logging.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{timeout: DefaultChannelTimeout, logger: logger}
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		name := ch.Name()
		if seen[name] {
			logger.Error("duplicate notification channel dropped", "channel", name)
			continue
		}
		seen[name] = true
		d.channels = append(d.channels, ch)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Channels returns the names of the registered channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch sends sub to every channel and waits for all of them. One
// channel failing, hanging or panicking never affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, sub leads.Submission) Report {
	ctx, span := dispatchTracer.Start(ctx, "notify.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("studio.lead_id", sub.ID),
			attribute.String("studio.lead_type", string(sub.Type)),
			attribute.Int("studio.channels", len(d.channels)),
		),
	)
	defer span.End()

	var (
		mu     sync.Mutex
		report = make(Report, len(d.channels))
		wg     conc.WaitGroup
	)
	for _, ch := range d.channels {
		wg.Go(func() {
			out := d.run(ctx, ch, sub)
			mu.Lock()
			report[ch.Name()] = out
			mu.Unlock()
		})
	}
	wg.Wait()

	for _, name := range sortedKeys(report) {
		out := report[name]
		span.SetAttributes(attribute.String("studio.channel."+name, string(out.Status)))
	}
	if failed := report.Failed(); len(failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d channel(s) failed", len(failed)))
	}
	return report
}

// NotifyLead dispatches and discards the report; outcomes are logged.
func (d *Dispatcher) NotifyLead(ctx context.Context, sub leads.Submission) {
	d.Dispatch(ctx, sub)
}

func (d *Dispatcher) run(ctx context.Context, ch Channel, sub leads.Submission) Outcome {
	name := ch.Name()
	if !ch.IsConfigured() {
		d.logger.Info("lead notification", "channel", name, "status", StatusSkipped, "reason", "not_configured", "lead_id", sub.ID)
		d.metrics.ObserveChannel(name, string(StatusSkipped), 0)
		return Outcome{Status: StatusSkipped}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type attempt struct {
		res       Result
		recovered *panics.Recovered
	}
	done := make(chan attempt, 1)
	start := time.Now()
	go func() {
		var a attempt
		var pc panics.Catcher
		pc.Try(func() { a.res = ch.Send(sendCtx, sub) })
		a.recovered = pc.Recovered()
		done <- a
	}()

	out := Outcome{Status: StatusSent}
	select {
	case a := <-done:
		switch {
		case a.recovered != nil:
			out.Status = StatusFailed
			out.Error = fmt.Errorf("notify: %s panicked: %w", name, a.recovered.AsError())
		case !a.res.Success:
			out.Status = StatusFailed
			out.Error = a.res.Error
			if out.Error == nil {
				out.Error = errors.New("notify: send reported failure")
			}
		}
	case <-sendCtx.Done():
		// Senders that ignore ctx are abandoned here; their late result is dropped.
		out.Status = StatusFailed
		out.Error = fmt.Errorf("notify: %s timed out after %s: %w", name, d.timeout, sendCtx.Err())
	}
	took := time.Since(start)
	out.Duration = took

	d.metrics.ObserveChannel(name, string(out.Status), took)
	if out.Status == StatusFailed {
		d.logger.Error("lead notification", "channel", name, "status", out.Status, "lead_id", sub.ID, "error", out.Error, "duration_ms", took.Milliseconds())
	} else {
		d.logger.Info("lead notification", "channel", name, "status", out.Status, "lead_id", sub.ID, "duration_ms", took.Milliseconds())
	}
	return out
}

func sortedKeys(r Report) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
