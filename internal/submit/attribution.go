package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/wolfman30/studio-leads/internal/drafts"
	"github.com/wolfman30/studio-leads/internal/leads"
)

const attributionKey = "attribution:utm"

// Attribution remembers the UTM parameters of the visit. The first landing
// URL that carries any utm_* parameter wins until another one does.
type Attribution struct {
	mu      sync.RWMutex
	utm     leads.UTM
	storage drafts.Storage
}

// NewAttribution returns attribution backed by storage so it survives
// reloads within a visit. storage may be nil to keep it in memory only.
func NewAttribution(ctx context.Context, storage drafts.Storage) *Attribution {
	a := &Attribution{storage: storage}
	if storage == nil {
		return a
	}
	data, err := storage.Get(ctx, attributionKey)
	if err != nil {
		return a
	}
	var utm leads.UTM
	if json.Unmarshal(data, &utm) == nil {
		a.utm = utm
	}
	return a
}

// CaptureUTM reads utm_* parameters from a landing URL. URLs without any of them
// leave earlier attribution in place.
func (a *Attribution) CaptureUTM(ctx context.Context, landing string) error {
	u, err := url.Parse(strings.TrimSpace(landing))
	if err != nil {
		return fmt.Errorf("submit: parse landing url: %w", err)
	}
	q := u.Query()
	utm := leads.UTM{
		Source:   strings.TrimSpace(q.Get("utm_source")),
		Medium:   strings.TrimSpace(q.Get("utm_medium")),
		Campaign: strings.TrimSpace(q.Get("utm_campaign")),
		Term:     strings.TrimSpace(q.Get("utm_term")),
		Content:  strings.TrimSpace(q.Get("utm_content")),
	}
	if utm.Empty() {
		return nil
	}

	a.mu.Lock()
	a.utm = utm
	a.mu.Unlock()

	if a.storage == nil {
		return nil
	}
	data, err := json.Marshal(utm)
	if err != nil {
		return fmt.Errorf("submit: encode attribution: %w", err)
	}
	if err := a.storage.Set(ctx, attributionKey, data); err != nil {
		return fmt.Errorf("submit: persist attribution: %w", err)
	}
	return nil
}

// UTM returns the attribution captured so far.
func (a *Attribution) UTM() leads.UTM {
	if a == nil {
		return leads.UTM{}
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.utm
}
