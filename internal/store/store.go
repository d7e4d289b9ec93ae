package store

import (
	"context"
	"errors"

	"github.com/nhle/reminder/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// Store defines the persistence interface for configured accounts and
// their fetch history. Notification records are never persisted.
type Store interface {
	// === Accounts ===

	ListAccounts(ctx context.Context) ([]model.Account, error)
	AddAccount(ctx context.Context, login string) (*model.Account, error)
	RemoveAccount(ctx context.Context, login string) error

	// === Sync history ===

	RecordSyncRun(ctx context.Context, run model.SyncRun) error
	SyncRuns(ctx context.Context, login string, limit int) ([]model.SyncRun, error)
	LastSyncRuns(ctx context.Context) (map[string]model.SyncRun, error)

	Close() error
}
