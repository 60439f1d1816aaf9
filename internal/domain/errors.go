package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a player has no open game session.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrLevelNotFound indicates the level is not part of the content catalog.
	ErrLevelNotFound = errors.New("level not found")
	// ErrInsufficientFunds is returned by a coin ledger when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient coins")
	// ErrInvalidAmount rejects zero or negative ledger movements.
	ErrInvalidAmount = errors.New("coin amount must be positive")
	// ErrModeNotFound indicates the game mode is not part of the content catalog.
	ErrModeNotFound = errors.New("game mode not found")
	// ErrInvalidPlayer rejects empty player identifiers.
	ErrInvalidPlayer = errors.New("player id is required")
	// ErrUnknownSetting is returned for settings keys outside the supported set.
	ErrUnknownSetting = errors.New("unknown setting")
)
