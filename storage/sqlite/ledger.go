package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wricardo/roomgames/game/ledger"
)

// Ledger stores wallets in the users table.
type Ledger struct {
	sqlDB *sql.DB
}

// Ledger returns the wallet view of the store.
func (s *Store) Ledger() *Ledger { return &Ledger{sqlDB: s.sqlDB} }

func (l *Ledger) AddBalance(ctx context.Context, playerID string, coins, exp int) error {
	if playerID == "" {
		return ledger.ErrInvalidPlayer
	}
	tx, err := l.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin balance update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (player_id, created_at) VALUES (?, ?)`,
		playerID, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET exp = exp + ?, coin = coin + ? WHERE player_id = ?`,
		exp, coins, playerID,
	); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return tx.Commit()
}

func (l *Ledger) Balance(ctx context.Context, playerID string) (ledger.Account, error) {
	if playerID == "" {
		return ledger.Account{}, ledger.ErrInvalidPlayer
	}
	acct := ledger.Account{PlayerID: playerID}
	err := l.sqlDB.QueryRowContext(ctx,
		`SELECT coin, exp FROM users WHERE player_id = ?`, playerID,
	).Scan(&acct.Coins, &acct.Exp)
	if err == sql.ErrNoRows {
		return acct, nil
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("select balance: %w", err)
	}
	return acct, nil
}
