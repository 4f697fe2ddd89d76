package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorStore implements VectorStore on top of Postgres with the pgvector
// extension, using cosine distance.
type PgVectorStore struct {
	db *pgxpool.Pool
}

func NewPgVectorStore(db *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{db: db}
}

func (s *PgVectorStore) Upsert(ctx context.Context, vectors []Vector) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range vectors {
		metadata, err := json.Marshal(v.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", v.ID, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO chunks (id, embedding, metadata)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET embedding = $2, metadata = $3`,
			v.ID, pgvector.NewVector(v.Values), metadata,
		)
		if err != nil {
			return fmt.Errorf("upsert vector %s: %w", v.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVectorStore) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	embedding := pgvector.NewVector(vector)

	filter := map[string]string{}
	for k, v := range opts.Filter {
		filter[k] = v
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, embedding, metadata,
		        1 - (embedding <=> $1) AS score
		 FROM chunks
		 WHERE metadata @> $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		embedding, filterJSON, opts.TopK,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var emb pgvector.Vector
		var metadata []byte
		if err := rows.Scan(&m.ID, &emb, &metadata, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", m.ID, err)
		}
		if opts.IncludeValues {
			m.Values = emb.Slice()
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PgVectorStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, "DELETE FROM chunks WHERE id = ANY($1)", ids)
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

func (s *PgVectorStore) DescribeStats(ctx context.Context) (*Stats, error) {
	var count int
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM chunks").Scan(&count); err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}
	return &Stats{VectorCount: count}, nil
}
