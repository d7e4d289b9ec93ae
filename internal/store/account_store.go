package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/reminder/internal/model"
)

// ListAccounts returns all accounts in display order.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := s.db.SelectContext(ctx, &accounts,
		"SELECT id, login, position, created_at FROM accounts ORDER BY position ASC, created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

// AddAccount appends login to the end of the display order.
func (s *SQLiteStore) AddAccount(ctx context.Context, login string) (*model.Account, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.GetContext(ctx, &existing, "SELECT id FROM accounts WHERE login = ?", login)
	switch {
	case err == nil:
		return nil, fmt.Errorf("adding account %s: %w", login, ErrAccountExists)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("checking account %s: %w", login, err)
	}

	var position int
	if err := tx.GetContext(ctx, &position,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM accounts",
	); err != nil {
		return nil, fmt.Errorf("computing account position: %w", err)
	}

	acc := model.Account{
		ID:        uuid.New().String(),
		Login:     login,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO accounts (id, login, position, created_at)
		VALUES (:id, :login, :position, :created_at)`,
		acc,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting account %s: %w", login, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing account %s: %w", login, err)
	}
	return &acc, nil
}

// RemoveAccount deletes login and its sync history.
func (s *SQLiteStore) RemoveAccount(ctx context.Context, login string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE login = ?", login)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", login, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", login, err)
	}
	if n == 0 {
		return fmt.Errorf("deleting account %s: %w", login, ErrAccountNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM sync_runs WHERE login = ? COLLATE NOCASE", login); err != nil {
		return fmt.Errorf("deleting sync history for %s: %w", login, err)
	}

	return tx.Commit()
}
