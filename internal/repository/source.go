package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helix-kb/helix/internal/domain"
)

// SourceRepository handles persistence of the source catalog.
type SourceRepository struct {
	db dbtx
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{db: pool}
}

func (r *SourceRepository) Create(ctx context.Context, s *domain.Source) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sources (id, url, title, description, content, status, scraped_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.URL, nullableString(s.Title), nullableString(s.Description), nullableString(s.Content), s.Status, s.ScrapedAt, s.CreatedAt,
	)
	return err
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *SourceRepository) GetByURL(ctx context.Context, url string) (*domain.Source, error) {
	return r.get(ctx, `WHERE url = $1`, url)
}

func (r *SourceRepository) get(ctx context.Context, where string, arg any) (*domain.Source, error) {
	var s domain.Source
	var title, description, content *string
	err := r.db.QueryRow(ctx,
		`SELECT id, url, title, description, content, status, scraped_at, created_at
		 FROM sources `+where,
		arg,
	).Scan(&s.ID, &s.URL, &title, &description, &content, &s.Status, &s.ScrapedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	if title != nil {
		s.Title = *title
	}
	if description != nil {
		s.Description = *description
	}
	if content != nil {
		s.Content = *content
	}
	return &s, nil
}

// List returns sources newest first. An empty status lists everything; a
// non-positive limit returns all rows.
func (r *SourceRepository) List(ctx context.Context, status domain.SourceStatus, limit int) ([]*domain.Source, error) {
	query := `SELECT id, url, title, description, content, status, scraped_at, created_at
		 FROM sources`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		if status != "" {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $1`
		}
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Source
	for rows.Next() {
		var s domain.Source
		var title, description, content *string
		if err := rows.Scan(&s.ID, &s.URL, &title, &description, &content, &s.Status, &s.ScrapedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		if title != nil {
			s.Title = *title
		}
		if description != nil {
			s.Description = *description
		}
		if content != nil {
			s.Content = *content
		}
		results = append(results, &s)
	}
	return results, rows.Err()
}

func (r *SourceRepository) UpdateStatus(ctx context.Context, id string, status domain.SourceStatus) error {
	if !status.IsValid() {
		return domain.ErrInvalidSourceStatus
	}
	tag, err := r.db.Exec(ctx, `UPDATE sources SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepository) UpdateContent(ctx context.Context, id string, title, description, content string, scrapedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sources SET title = $1, description = $2, content = $3, scraped_at = $4 WHERE id = $5`,
		nullableString(title), nullableString(description), nullableString(content), scrapedAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}
