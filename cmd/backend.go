package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/storage/postgres"
)

// backend bundles the storage pair every command works against. Both members
// come from the same place: the filesystem when DATABASE_URL is empty,
// PostgreSQL otherwise.
type backend struct {
	store  identity.Store
	ledger attendance.Ledger
	close  func()
}

// openBackend selects and opens the storage backend from the configuration.
// The returned close function must be called before the command exits.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Storage.DatabaseURL != "" {
		fmt.Println("Connecting to PostgreSQL...")
		pool, err := postgres.NewPool(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return &backend{
			store:  postgres.NewIdentityRepository(pool),
			ledger: postgres.NewAttendanceRepository(pool),
			close:  func() { pool.Close() },
		}, nil
	}

	store, err := identity.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}

	ledger, err := attendance.OpenCSVLedger(cfg.Storage.AttendanceCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to open attendance ledger: %w", err)
	}

	return &backend{
		store:  store,
		ledger: ledger,
		close:  func() {},
	}, nil
}
