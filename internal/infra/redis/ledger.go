package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"quiz-progress-service/internal/domain"
)

// debitScript decrements the balance only when it covers the amount.
// Returns {1, newBalance} on success and {0, balance} when funds are short.
var debitScript = redis.NewScript(`
local bal = tonumber(redis.call('GET', KEYS[1]) or '0')
local amount = tonumber(ARGV[1])
if bal < amount then
  return {0, bal}
end
return {1, redis.call('DECRBY', KEYS[1], amount)}
`)

// CoinLedger stores balances as Redis integers: SET coins:{playerID} {balance}
type CoinLedger struct {
	client *redis.Client
}

func NewCoinLedger(client *redis.Client) *CoinLedger {
	return &CoinLedger{client: client}
}

func (l *CoinLedger) EnsureAccount(ctx context.Context, playerID string, initial int) error {
	if initial < 0 {
		return domain.ErrInvalidAmount
	}
	return l.client.SetNX(ctx, l.key(playerID), initial, 0).Err()
}

func (l *CoinLedger) Balance(ctx context.Context, playerID string) (int, error) {
	bal, err := l.client.Get(ctx, l.key(playerID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return bal, err
}

func (l *CoinLedger) Debit(ctx context.Context, playerID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	res, err := debitScript.Run(ctx, l.client, []string{l.key(playerID)}, amount).Int64Slice()
	if err != nil {
		return 0, err
	}
	if len(res) != 2 {
		return 0, errors.New("unexpected debit script reply")
	}
	if res[0] == 0 {
		return int(res[1]), domain.ErrInsufficientFunds
	}
	return int(res[1]), nil
}

func (l *CoinLedger) Credit(ctx context.Context, playerID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	bal, err := l.client.IncrBy(ctx, l.key(playerID), int64(amount)).Result()
	return int(bal), err
}

func (l *CoinLedger) key(playerID string) string {
	return "coins:" + playerID
}
