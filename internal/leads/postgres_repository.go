package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{pool: q}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, sub Submission) (*Lead, error) {
	if sub.ID == "" {
		sub = sub.WithID(uuid.NewString())
	}
	if _, err := uuid.Parse(sub.ID); err != nil {
		return nil, fmt.Errorf("leads: invalid id %q: %w", sub.ID, err)
	}

	query := `
		INSERT INTO leads (
			id, type, source, source_page, submitted_at,
			name, email, phone, phone_e164, telegram, message,
			site_type, goal, timeline, budget, lead_references, comment,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		sub.ID,
		string(sub.Type),
		sub.Source,
		sub.SourcePage,
		sub.Timestamp,
		sub.Name,
		sub.Email,
		sub.Phone,
		sub.PhoneE164,
		sub.Telegram,
		sub.Message,
		sub.SiteType,
		sub.Goal,
		sub.Timeline,
		sub.Budget,
		sub.References,
		sub.Comment,
		sub.UTM.Source,
		sub.UTM.Medium,
		sub.UTM.Campaign,
		sub.UTM.Term,
		sub.UTM.Content,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{Submission: sub, CreatedAt: createdAt}, nil
}

// GetByID fetches one lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, type, source, source_page, submitted_at,
			name, email, phone, phone_e164, telegram, message,
			site_type, goal, timeline, budget, lead_references, comment,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			created_at
		FROM leads
		WHERE id = $1
	`
	var (
		lead    Lead
		leadTyp string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&leadTyp,
		&lead.Source,
		&lead.SourcePage,
		&lead.Timestamp,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.PhoneE164,
		&lead.Telegram,
		&lead.Message,
		&lead.SiteType,
		&lead.Goal,
		&lead.Timeline,
		&lead.Budget,
		&lead.References,
		&lead.Comment,
		&lead.UTM.Source,
		&lead.UTM.Medium,
		&lead.UTM.Campaign,
		&lead.UTM.Term,
		&lead.UTM.Content,
		&lead.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	lead.Type = Type(leadTyp)
	return &lead, nil
}
