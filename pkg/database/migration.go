package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type migrationFile struct {
	Version string
	Name    string
	Path    string
}

// RunMigrations применяет SQL-миграции из каталога migrationsDir.
// Файлы именуются как NNN_название.sql и выполняются в порядке версий,
// каждая миграция в отдельной транзакции. Выполненные версии
// запоминаются в таблице migrations и повторно не применяются.
func RunMigrations(db *pgxpool.Pool, migrationsDir string, logger *zap.Logger) error {
	ctx := context.Background()

	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	pending, err := readMigrationFiles(migrationsDir, logger)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(ctx, db, m, logger); err != nil {
			return err
		}
	}

	return nil
}

func ensureMigrationsTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы миграций: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *pgxpool.Pool) (map[string]bool, error) {
	rows, err := db.Query(ctx, "SELECT version FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка выполненных миграций: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о миграции: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}
	return applied, nil
}

func readMigrationFiles(dir string, logger *zap.Logger) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении директории миграций: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, name, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			logger.Warn("неверный формат имени файла миграции", zap.String("file", entry.Name()))
			continue
		}
		files = append(files, migrationFile{
			Version: version,
			Name:    strings.TrimSuffix(name, ".sql"),
			Path:    filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func applyMigration(ctx context.Context, db *pgxpool.Pool, m migrationFile, logger *zap.Logger) error {
	content, err := os.ReadFile(m.Path)
	if err != nil {
		return fmt.Errorf("ошибка при чтении файла миграции %s: %w", m.Path, err)
	}

	logger.Info("выполнение миграции", zap.String("version", m.Version), zap.String("name", m.Name))

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("ошибка при выполнении миграции %s: %w", m.Name, err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO migrations (version, name, applied_at) VALUES ($1, $2, $3)",
		m.Version, m.Name, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("ошибка при записи информации о выполненной миграции: %w", err)
	}

	return tx.Commit(ctx)
}
