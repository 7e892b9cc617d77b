package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/logger"
	"github.com/ignatzorin/proposal-workspace/internal/repository/common"
)

// RunMigrations применяет ещё не выполненные SQL файлы из каталога, каждый в своей транзакции.
// Возвращает имена применённых миграций.
func RunMigrations(ctx context.Context, conn *sqlx.DB, migrationsDir string) ([]string, error) {
	if conn.DriverName() != DriverPostgres {
		return nil, fmt.Errorf("migrate: каталог миграций рассчитан на postgres, драйвер %s", conn.DriverName())
	}

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("migrate: не удалось создать таблицу миграций: %w", err)
	}

	pending, err := pendingMigrations(ctx, conn, migrationsDir)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(pending))
	for _, name := range pending {
		contents, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return applied, fmt.Errorf("migrate: не удалось прочитать %s: %w", name, err)
		}

		err = common.WithTransaction(ctx, conn, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
				return fmt.Errorf("выполнение: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
				return fmt.Errorf("отметка о выполнении: %w", err)
			}
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("migrate: миграция %s: %w", name, err)
		}

		applied = append(applied, name)
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{"migration": name}).Info("migration applied")
		}
	}

	return applied, nil
}

// pendingMigrations возвращает отсортированный список файлов, которых нет в schema_migrations.
func pendingMigrations(ctx context.Context, conn *sqlx.DB, migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("migrate: не удалось прочитать каталог: %w", err)
	}

	var done []string
	if err := conn.SelectContext(ctx, &done, `SELECT name FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("migrate: не удалось получить список миграций: %w", err)
	}
	applied := make(map[string]struct{}, len(done))
	for _, name := range done {
		applied[name] = struct{}{}
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if _, ok := applied[name]; ok {
			continue
		}
		pending = append(pending, name)
	}
	sort.Strings(pending)

	return pending, nil
}
