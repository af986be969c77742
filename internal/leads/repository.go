package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores accepted leads. Create assigns the id when the
// submission does not carry one yet.
type Repository interface {
	Create(ctx context.Context, sub Submission) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
}

// InMemoryRepository keeps leads in process memory. It is the default when no
// database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of the submission.
func (r *InMemoryRepository) Create(ctx context.Context, sub Submission) (*Lead, error) {
	if sub.ID == "" {
		sub = sub.WithID(uuid.NewString())
	}
	lead := &Lead{Submission: sub, CreatedAt: r.now()}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	out := *lead
	return &out, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *lead
	return &out, nil
}

// Count returns how many leads are stored.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}
