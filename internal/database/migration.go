package database

import (
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationLogger adapts ectologger to the migrate.Logger interface
type MigrationLogger struct {
	logger ectologger.Logger
}

func (m *MigrationLogger) Verbose() bool {
	return true
}

func (m *MigrationLogger) Printf(format string, v ...any) {
	m.logger.Infof(format, v...)
}

// MigrationConfig controls how migrations are applied
type MigrationConfig struct {
	FolderPath string // path to the directory of .sql migration files
	Version    uint   // when non-zero, migrate to this exact version
	Force      bool   // force the version without running migrations
}

// MigrationService applies schema migrations on startup
type MigrationService struct {
	db     *Instance
	dbName string
	config MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(db *Instance, dbName string, config MigrationConfig, logger ectologger.Logger) *MigrationService {
	return &MigrationService{
		db:     db,
		dbName: dbName,
		config: config,
		logger: logger,
	}
}

// resolveFolder walks up from the working directory until the migration
// folder is found. Lets tests run from nested package directories.
func (s *MigrationService) resolveFolder() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}

	for {
		candidate := filepath.Join(dir, s.config.FolderPath)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Errorf("migration folder %s not found", s.config.FolderPath)
		}
		dir = parent
	}
}

// Migrate applies pending migrations. A no-change result is not an error.
func (s *MigrationService) Migrate() error {
	folder, err := s.resolveFolder()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(s.db.DB.DB, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create postgres migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, s.dbName, driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migration instance")
	}
	m.Log = &MigrationLogger{logger: s.logger}

	if s.config.Force {
		if err := m.Force(int(s.config.Version)); err != nil {
			return errors.Wrap(err, "failed to force migration version")
		}
		return nil
	}

	if s.config.Version > 0 {
		err = m.Migrate(s.config.Version)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed to run migrations")
	}

	s.logger.Info("Database migrations up to date")
	return nil
}
