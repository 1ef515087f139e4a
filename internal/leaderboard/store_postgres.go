package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists leaderboard entries in Postgres.
//
// Schema:
//
//	CREATE TABLE leaderboard_scores (
//	    player_id   UUID PRIMARY KEY,
//	    player_name TEXT NOT NULL,
//	    best_flips  INT NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) RecordScore(ctx context.Context, entry Entry) (int, bool, error) {
	const q = `
		WITH prior AS (
			SELECT best_flips FROM leaderboard_scores WHERE player_id = $1
		)
		INSERT INTO leaderboard_scores (player_id, player_name, best_flips, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id) DO UPDATE SET
			player_name = EXCLUDED.player_name,
			best_flips  = LEAST(leaderboard_scores.best_flips, EXCLUDED.best_flips),
			updated_at  = CASE
				WHEN EXCLUDED.best_flips < leaderboard_scores.best_flips THEN EXCLUDED.updated_at
				ELSE leaderboard_scores.updated_at
			END
		RETURNING best_flips, (SELECT best_flips FROM prior)`

	var best int
	var prior *int
	err := s.pool.QueryRow(ctx, q, entry.PlayerID, entry.PlayerName, entry.BestFlips, entry.UpdatedAt).Scan(&best, &prior)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record score: %w", err)
	}
	improved := prior == nil || best < *prior
	return best, improved, nil
}

func (s *PostgresStore) PersonalBest(ctx context.Context, playerID uuid.UUID) (*int, error) {
	const q = `SELECT best_flips FROM leaderboard_scores WHERE player_id = $1`

	var best int
	err := s.pool.QueryRow(ctx, q, playerID).Scan(&best)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch personal best: %w", err)
	}
	return &best, nil
}

func (s *PostgresStore) TopScores(ctx context.Context, limit int) ([]Entry, error) {
	const q = `
		SELECT player_id, player_name, best_flips, updated_at
		FROM leaderboard_scores
		ORDER BY best_flips ASC, updated_at ASC
		LIMIT $1`

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.BestFlips, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}
	return entries, nil
}
