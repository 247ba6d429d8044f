package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/helix-kb/helix/internal/domain"
)

// ChunkRepository handles persistence of embedded document chunks.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// InsertChunks writes all chunks in one transaction so a document is never
// partially indexed.
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks
				(id, source_id, title, url, source_type, chunk_index, total_chunks, page_number, content, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID,
			c.Meta.SourceID,
			c.Meta.Title,
			c.Meta.URL,
			c.Meta.SourceType,
			c.Meta.ChunkIndex,
			c.Meta.TotalChunks,
			nullableInt(c.Meta.PageNumber),
			c.Content,
			pgvector.NewVector(c.Embedding),
			c.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// SearchSimilar returns the closest chunks by cosine distance, nearest first.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievalResult, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx,
		`SELECT source_id, title, url, source_type, chunk_index, total_chunks, page_number, content,
		        (embedding <=> $1)::float8 AS distance
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RetrievalResult
	for rows.Next() {
		var res domain.RetrievalResult
		var pageNumber *int
		if err := rows.Scan(
			&res.Meta.SourceID,
			&res.Meta.Title,
			&res.Meta.URL,
			&res.Meta.SourceType,
			&res.Meta.ChunkIndex,
			&res.Meta.TotalChunks,
			&pageNumber,
			&res.Content,
			&res.Distance,
		); err != nil {
			return nil, err
		}
		if pageNumber != nil {
			res.Meta.PageNumber = *pageNumber
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *ChunkRepository) DeleteBySource(ctx context.Context, sourceID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM document_chunks WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ChunkRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM document_chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListAll snapshots every chunk id with its source id for consistency audits.
func (r *ChunkRepository) ListAll(ctx context.Context) ([]domain.ChunkRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, source_id FROM document_chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.ChunkRef
	for rows.Next() {
		var ref domain.ChunkRef
		if err := rows.Scan(&ref.ID, &ref.SourceID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
