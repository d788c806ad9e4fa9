package postgres

import (
	"context"
	"fmt"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// AccountScoreStore implements storage.AccountScoreStore using PostgreSQL.
type AccountScoreStore struct {
	pool *Pool
}

// NewAccountScoreStore creates a new Postgres-backed account score store.
func NewAccountScoreStore(pool *Pool) *AccountScoreStore {
	return &AccountScoreStore{pool: pool}
}

// Insert stores a single account score.
func (s *AccountScoreStore) Insert(ctx context.Context, score *domain.AccountScore) error {
	if score == nil {
		return fmt.Errorf("%w: score is nil", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO account_scores (account_id, score_type, score_value, score_date, is_stalled, stalled_since, contributing_factors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		score.AccountID,
		string(score.ScoreType),
		score.ScoreValue,
		score.ScoreDate,
		score.IsStalled,
		score.StalledSince,
		score.ContributingFactors,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: score for account %s type %s on %s",
				storage.ErrDuplicateKey, score.AccountID, score.ScoreType, score.ScoreDate.Format("2006-01-02"))
		}
		return fmt.Errorf("insert account score: %w", err)
	}

	return nil
}

// InsertBulk stores multiple account scores in a single transaction.
func (s *AccountScoreStore) InsertBulk(ctx context.Context, scores []*domain.AccountScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO account_scores (account_id, score_type, score_value, score_date, is_stalled, stalled_since, contributing_factors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, score := range scores {
		if score == nil {
			return fmt.Errorf("%w: score is nil", storage.ErrInvalidInput)
		}

		_, err := tx.Exec(ctx, query,
			score.AccountID,
			string(score.ScoreType),
			score.ScoreValue,
			score.ScoreDate,
			score.IsStalled,
			score.StalledSince,
			score.ContributingFactors,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: score for account %s type %s on %s",
					storage.ErrDuplicateKey, score.AccountID, score.ScoreType, score.ScoreDate.Format("2006-01-02"))
			}
			return fmt.Errorf("insert account score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByType retrieves scores of one type matching the filter, ordered by score date.
func (s *AccountScoreStore) GetByType(ctx context.Context, scoreType domain.ScoreType, filter storage.ScoreFilter) ([]*domain.AccountScore, error) {
	query := `
		SELECT account_id, score_type, score_value, score_date, is_stalled, stalled_since, contributing_factors
		FROM account_scores
		WHERE score_type = $1
	`
	args := []any{string(scoreType)}
	argPos := 2

	if filter.AccountID != "" {
		query += fmt.Sprintf(" AND account_id = $%d", argPos)
		args = append(args, filter.AccountID)
		argPos++
	}
	if filter.StalledOnly {
		query += " AND is_stalled = TRUE"
	}
	if !filter.Start.IsZero() {
		query += fmt.Sprintf(" AND score_date >= $%d", argPos)
		args = append(args, filter.Start)
		argPos++
	}
	if !filter.End.IsZero() {
		query += fmt.Sprintf(" AND score_date <= $%d", argPos)
		args = append(args, filter.End)
		argPos++
	}

	query += " ORDER BY score_date ASC, account_id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query account scores: %w", err)
	}
	defer rows.Close()

	var scores []*domain.AccountScore
	for rows.Next() {
		var score domain.AccountScore
		var scoreType string

		err := rows.Scan(
			&score.AccountID,
			&scoreType,
			&score.ScoreValue,
			&score.ScoreDate,
			&score.IsStalled,
			&score.StalledSince,
			&score.ContributingFactors,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account score: %w", err)
		}

		score.ScoreType = domain.ScoreType(scoreType)
		scores = append(scores, &score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account scores: %w", err)
	}

	return scores, nil
}

var _ storage.AccountScoreStore = (*AccountScoreStore)(nil)
