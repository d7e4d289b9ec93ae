package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/reminder/internal/credential"
	"github.com/nhle/reminder/internal/store"
	appsync "github.com/nhle/reminder/internal/sync"
)

// Accounts keeps the account list consistent across the store, the
// keyring and (when running) the registry.
type Accounts struct {
	Store    store.Store
	Creds    credential.Store
	Registry *appsync.Registry
	Log      *zap.Logger
}

func (a Accounts) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// Load registers every stored account with the registry in display order
// and returns how many were registered.
func (a Accounts) Load(ctx context.Context) (int, error) {
	accounts, err := a.Store.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading accounts: %w", err)
	}

	n := 0
	for _, acc := range accounts {
		if err := a.Registry.Add(acc.Login); err != nil {
			if errors.Is(err, appsync.ErrDuplicateAccount) {
				continue
			}
			a.logger().Warn("skipping stored account", zap.String("account", acc.Login), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

// Add stores token and login, then registers the account so the next
// scheduler pass loads it. It returns the normalized login. Adding a
// login that is already stored replaces its token.
func (a Accounts) Add(ctx context.Context, login, token string) (string, error) {
	login, err := appsync.NormalizeLogin(login)
	if err != nil {
		return "", err
	}
	cred := credential.New(token)
	if cred.Empty() {
		return "", errors.New("token is required")
	}

	login, err = a.storedCase(ctx, login)
	if err != nil {
		return "", err
	}

	if err := a.Creds.Set(login, cred); err != nil {
		return "", err
	}

	_, err = a.Store.AddAccount(ctx, login)
	switch {
	case errors.Is(err, store.ErrAccountExists):
		a.logger().Info("account token replaced", zap.String("account", login))
	case err != nil:
		_ = a.Creds.Delete(login)
		return "", err
	}

	if a.Registry != nil {
		if err := a.Registry.Add(login); err != nil && !errors.Is(err, appsync.ErrDuplicateAccount) {
			return "", err
		}
		if _, err := a.Registry.RequestRefresh(login, false); err != nil {
			return "", err
		}
	}

	a.logger().Info("account added", zap.String("account", login))
	return login, nil
}

// Remove deletes login everywhere, matching it case-insensitively against
// the stored accounts. A missing registry entry or keyring item is not an
// error; a missing store row is.
func (a Accounts) Remove(ctx context.Context, login string) error {
	login, err := a.storedCase(ctx, strings.TrimSpace(login))
	if err != nil {
		return err
	}

	if a.Registry != nil {
		if err := a.Registry.Remove(login); err != nil && !errors.Is(err, appsync.ErrUnknownAccount) {
			return err
		}
	}

	if err := a.Store.RemoveAccount(ctx, login); err != nil {
		return err
	}

	if err := a.Creds.Delete(login); err != nil {
		return err
	}

	a.logger().Info("account removed", zap.String("account", login))
	return nil
}

// storedCase returns the stored spelling of login when an account matches
// it case-insensitively, so the keyring entry follows the stored row.
func (a Accounts) storedCase(ctx context.Context, login string) (string, error) {
	accounts, err := a.Store.ListAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("loading accounts: %w", err)
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.Login, login) {
			return acc.Login, nil
		}
	}
	return login, nil
}
