// Package ledger defines player wallets. Games credit rewards and debit hint
// purchases through a Ledger; they never compute balances themselves.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidPlayer = errors.New("player id is required")

// Account is a player's wallet.
type Account struct {
	PlayerID string `json:"player_id"`
	Coins    int    `json:"coins"`
	Exp      int    `json:"exp"`
}

// Ledger adjusts and reads balances. AddBalance creates the account on first
// use; negative amounts debit.
type Ledger interface {
	AddBalance(ctx context.Context, playerID string, coins, exp int) error
	Balance(ctx context.Context, playerID string) (Account, error)
}

// Memory is an in-process Ledger.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]Account)}
}

func (m *Memory) AddBalance(ctx context.Context, playerID string, coins, exp int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if playerID == "" {
		return ErrInvalidPlayer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct := m.accounts[playerID]
	acct.PlayerID = playerID
	acct.Coins += coins
	acct.Exp += exp
	m.accounts[playerID] = acct
	return nil
}

// Balance returns a zero account for unknown players.
func (m *Memory) Balance(ctx context.Context, playerID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	if playerID == "" {
		return Account{}, ErrInvalidPlayer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[playerID]
	if !ok {
		return Account{PlayerID: playerID}, nil
	}
	return acct, nil
}

// Charge debits cost from playerID if the balance covers it. Otherwise it
// returns an *InsufficientFundsError carrying the balance and the cost,
// which matches ErrInsufficientFunds under errors.Is.
func Charge(ctx context.Context, l Ledger, playerID string, cost int) error {
	acct, err := l.Balance(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	if acct.Coins < cost {
		return &InsufficientFundsError{Have: acct.Coins, Need: cost}
	}
	if err := l.AddBalance(ctx, playerID, -cost, 0); err != nil {
		return fmt.Errorf("failed to debit %d coins: %w", cost, err)
	}
	return nil
}

// ErrInsufficientFunds matches any InsufficientFundsError via errors.Is.
var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError reports a failed Charge.
type InsufficientFundsError struct {
	Have int
	Need int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %d, need %d", e.Have, e.Need)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
