package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-progress-service/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var attemptColumns = []string{"quiz_id", "attempted_at", "is_correct", "time_spent", "attempt_number"}

// AttemptStore reads and appends attempt history in the attempts table.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Append(ctx context.Context, playerID, levelID string, a domain.Attempt) error {
	query, args, err := insertAttempt(playerID, levelID, a)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) LevelAttempts(ctx context.Context, playerID, levelID string) ([]domain.Attempt, error) {
	return s.list(ctx, selectAttempts(sq.Eq{"player_id": playerID, "level_id": levelID}))
}

func (s *AttemptStore) PlayerAttempts(ctx context.Context, playerID string) ([]domain.Attempt, error) {
	return s.list(ctx, selectAttempts(sq.Eq{"player_id": playerID}))
}

func (s *AttemptStore) list(ctx context.Context, b sq.SelectBuilder) ([]domain.Attempt, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.QuizID, &a.AttemptedAt, &a.IsCorrect, &a.TimeSpent, &a.AttemptNumber); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.AttemptedAt = a.AttemptedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertAttempt(playerID, levelID string, a domain.Attempt) (string, []interface{}, error) {
	return psql.Insert("attempts").
		Columns(append([]string{"player_id", "level_id"}, attemptColumns...)...).
		Values(playerID, levelID, a.QuizID, a.AttemptedAt, a.IsCorrect, a.TimeSpent, a.AttemptNumber).
		ToSql()
}

func selectAttempts(where sq.Eq) sq.SelectBuilder {
	return psql.Select(attemptColumns...).
		From("attempts").
		Where(where).
		OrderBy("attempted_at", "id")
}
