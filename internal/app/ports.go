package app

import (
	"context"

	"quiz-progress-service/internal/domain"
)

// ProgressStore persists attempts and answers per-level progress queries.
// force bypasses any cache between the caller and the source of truth.
type ProgressStore interface {
	FetchProgress(ctx context.Context, playerID, levelID string, force bool) (domain.ProgressResult, error)
	UpdateProgress(ctx context.Context, playerID, levelID string, attempt domain.Attempt) error
	Attempts(ctx context.Context, playerID string) ([]domain.Attempt, error)
}

// CoinLedger keeps each player's coin balance.
type CoinLedger interface {
	EnsureAccount(ctx context.Context, playerID string, initial int) error
	Balance(ctx context.Context, playerID string) (int, error)
	// Debit fails with domain.ErrInsufficientFunds and leaves the balance untouched.
	Debit(ctx context.Context, playerID string, amount int) (int, error)
	Credit(ctx context.Context, playerID string, amount int) (int, error)
}

// SettingsStore holds boolean player preferences. found is false for keys never set.
type SettingsStore interface {
	GetBool(ctx context.Context, playerID, key string) (value bool, found bool, err error)
	SetBool(ctx context.Context, playerID, key string, value bool) error
}

// SessionRepository stores one SessionController per player.
type SessionRepository interface {
	// Acquire returns the player's controller, creating it when absent, and takes a
	// reference on it in the same step.
	Acquire(playerID string, create func() *SessionController) *SessionController
	GetOrCreate(playerID string, create func() *SessionController) *SessionController
	Get(playerID string) (*SessionController, bool)
	// Release drops a reference taken by Acquire. The controller is disposed once no
	// reference and no subscriber is left.
	Release(playerID string)
}
