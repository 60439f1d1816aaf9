package memory

import (
	"context"
	"sync"

	"quiz-progress-service/internal/domain"
)

// CoinLedger keeps balances in process memory.
type CoinLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

func NewCoinLedger() *CoinLedger {
	return &CoinLedger{balances: make(map[string]int)}
}

// EnsureAccount seeds a new account with initial coins; existing balances are left alone.
func (l *CoinLedger) EnsureAccount(_ context.Context, playerID string, initial int) error {
	if initial < 0 {
		return domain.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[playerID]; !ok {
		l.balances[playerID] = initial
	}
	return nil
}

func (l *CoinLedger) Balance(_ context.Context, playerID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[playerID], nil
}

func (l *CoinLedger) Debit(_ context.Context, playerID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[playerID]
	if bal < amount {
		return bal, domain.ErrInsufficientFunds
	}
	l.balances[playerID] = bal - amount
	return bal - amount, nil
}

func (l *CoinLedger) Credit(_ context.Context, playerID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[playerID] += amount
	return l.balances[playerID], nil
}
