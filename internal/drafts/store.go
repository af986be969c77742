package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/studio-leads/pkg/logging"
)

// DefaultDebounce is the quiet period before a draft is written.
const DefaultDebounce = 500 * time.Millisecond

const writeTimeout = 5 * time.Second

// Kind names a form whose drafts are kept, e.g. "brief".
type Kind string

// Draft is a partial snapshot of form field values. It never holds
// attribution or server-assigned identifiers.
type Draft map[string]string

// Key returns the storage key for a form kind.
func Key(kind Kind) string {
	return "draft:" + string(kind)
}

// compact drops empty values so a draft only carries what the visitor typed.
func compact(d Draft) Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Store persists drafts per form kind with debounced writes.
type Store struct {
	storage  Storage
	debounce time.Duration
	logger   *logging.Logger

	mu    sync.Mutex
	sinks map[Kind]*Debouncer[pendingDraft]

	// writeMu orders storage writes against Clear; epochs invalidate writes
	// scheduled before the last Clear of a kind.
	writeMu sync.Mutex
	epochs  map[Kind]uint64
}

type pendingDraft struct {
	draft Draft
	epoch uint64
}

// Option customizes a Store.
type Option func(*Store)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// NewStore returns a draft store over storage.
func NewStore(storage Storage, logger *logging.Logger, opts ...Option) *Store {
	if storage == nil {
		panic("drafts: storage required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{
		storage:  storage,
		debounce: DefaultDebounce,
		logger:   logger,
		sinks:    map[Kind]*Debouncer[pendingDraft]{},
		epochs:   map[Kind]uint64{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the last saved draft for kind. A missing, unreadable or corrupt
// draft is reported as absent; it is never an error for the caller.
func (s *Store) Load(ctx context.Context, kind Kind) (Draft, bool) {
	data, err := s.storage.Get(ctx, Key(kind))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Debug("draft unreadable", "kind", kind, "error", err)
		}
		return nil, false
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		s.logger.Debug("draft corrupt", "kind", kind, "error", err)
		return nil, false
	}
	d = compact(d)
	if len(d) == 0 {
		return nil, false
	}
	return d, true
}

// Save schedules partial to be written once input has been quiet for the
// debounce period. Only the latest value scheduled within the window is
// written, and an empty draft removes the stored one.
func (s *Store) Save(kind Kind, partial Draft) {
	s.writeMu.Lock()
	epoch := s.epochs[kind]
	s.writeMu.Unlock()
	s.sink(kind).Schedule(pendingDraft{draft: compact(partial), epoch: epoch})
}

// Clear cancels pending writes for kind and deletes its draft.
func (s *Store) Clear(ctx context.Context, kind Kind) error {
	s.mu.Lock()
	sink, ok := s.sinks[kind]
	s.mu.Unlock()
	if ok {
		sink.Cancel()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.epochs[kind]++
	return s.storage.Delete(ctx, Key(kind))
}

// Flush writes every pending draft now.
func (s *Store) Flush() {
	s.mu.Lock()
	sinks := make([]*Debouncer[pendingDraft], 0, len(s.sinks))
	for _, sink := range s.sinks {
		sinks = append(sinks, sink)
	}
	s.mu.Unlock()
	for _, sink := range sinks {
		sink.Flush()
	}
}

func (s *Store) sink(kind Kind) *Debouncer[pendingDraft] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sink, ok := s.sinks[kind]; ok {
		return sink
	}
	sink := NewDebouncer(s.debounce, func(p pendingDraft) { s.write(kind, p) })
	s.sinks[kind] = sink
	return sink
}

func (s *Store) write(kind Kind, p pendingDraft) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if p.epoch != s.epochs[kind] {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	d := p.draft
	if len(d) == 0 {
		if err := s.storage.Delete(ctx, Key(kind)); err != nil {
			s.logger.Warn("draft delete failed", "kind", kind, "error", err)
		}
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		s.logger.Warn("draft encode failed", "kind", kind, "error", err)
		return
	}
	if err := s.storage.Set(ctx, Key(kind), data); err != nil {
		s.logger.Warn("draft write failed", "kind", kind, "error", err)
	}
}

// Apply fills current with draft values for fields that are non-empty in the
// draft and were not touched in this session. current is not modified.
func Apply(draft Draft, current map[string]string, touched map[string]bool) map[string]string {
	out := make(map[string]string, len(current)+len(draft))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range draft {
		if strings.TrimSpace(v) == "" || touched[k] {
			continue
		}
		out[k] = v
	}
	return out
}
