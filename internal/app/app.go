package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"rwb-go/internal/api"
	"rwb-go/internal/config"
	"rwb-go/internal/database"
	"rwb-go/internal/encryption"
	"rwb-go/internal/itemstore"
	"rwb-go/internal/model"
	"rwb-go/internal/rwb"
	"rwb-go/internal/vault"
)

// backupName is the object name backups are stored under in the vault.
const backupName = "rwb.db"

// App is the composition root: it constructs all dependencies from config
// and exposes the high-level operations the CLI runs. The caller must call
// Close when done.
type App struct {
	cfg        *config.Config
	db         *database.SQLiteDatabase
	items      rwb.ItemStore
	encryptor  rwb.Encryptor
	dispatcher *rwb.Dispatcher
	trigger    *rwb.Trigger
	service    *rwb.Service
	logger     rwb.Logger
	logFile    *os.File
}

// New creates a fully wired App from the given config. command identifies
// the CLI command being run (e.g. "serve", "backup") and tags every log
// record.
func New(cfg *config.Config, command string) (*App, error) {
	slogger, logFile, err := newLogger(cfg.LogDir, command)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	items, err := itemstore.NewItemStoreFromConfig(cfg.ItemStore)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating item store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	clock := rwb.RealClock{}
	watcher := rwb.NewWatcher(items, db, logger, clock)
	dispatcher := rwb.NewDispatcher(db, nil, logger, clock)

	interval := time.Duration(cfg.Watcher.PollIntervalSeconds) * time.Second
	trigger := rwb.NewTrigger(watcher, dispatcher, interval, logger)

	service := rwb.NewService(items, db, dispatcher, logger, clock, rwb.UUIDGenerator{}, trigger.Notify)

	return &App{
		cfg:        cfg,
		db:         db,
		items:      items,
		encryptor:  enc,
		dispatcher: dispatcher,
		trigger:    trigger,
		service:    service,
		logger:     logger,
		logFile:    logFile,
	}, nil
}

// Run starts the change trigger and the HTTP server, blocking until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.trigger.Run(ctx)

	server := api.New(a.service, a.cfg.Server.Addr, a.logger)
	return server.Run(ctx)
}

// ReconcileOnce runs a single reconciliation pass and dispatches its
// events. Used by the one-shot CLI command.
func (a *App) ReconcileOnce() []model.ChangeEvent {
	return a.trigger.RunOnce()
}

// Migrate opens the snapshot/webhook database and applies pending
// migrations. Separate from New, which refuses to run on a stale schema.
func Migrate(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	return db.MigrateUp()
}

// Encryptor exposes the configured encryptor for key management commands.
func (a *App) Encryptor() rwb.Encryptor {
	return a.encryptor
}

// Backup snapshots the database via VACUUM INTO, optionally encrypts it,
// and uploads it to the first configured vault with an incremented version.
// Returns the new version number.
func (a *App) Backup(encrypt bool) (int64, error) {
	if len(a.cfg.Vaults) == 0 {
		return 0, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(a.cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "rwb-db-backup-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for db backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := a.db.BackupTo(tmpPath); err != nil {
		return 0, fmt.Errorf("backing up database: %w", err)
	}

	name := backupName
	uploadPath := tmpPath
	if encrypt {
		if !a.encryptor.IsConfigured() {
			return 0, fmt.Errorf("encryption keys not configured (run rwb keys init)")
		}
		encPath := tmpPath + ".age"
		if err := a.encryptFile(tmpPath, encPath); err != nil {
			return 0, err
		}
		defer os.Remove(encPath)
		name = backupName + ".age"
		uploadPath = encPath
	}

	current, err := v.GetBackupVersion(name)
	if err != nil {
		return 0, fmt.Errorf("checking vault version: %w", err)
	}
	version := current + 1

	f, err := os.Open(uploadPath)
	if err != nil {
		return 0, fmt.Errorf("opening backup for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat backup: %w", err)
	}

	if err := v.PutBackup(name, f, info.Size(), version); err != nil {
		return 0, fmt.Errorf("uploading backup to vault: %w", err)
	}

	a.logger.Info("database backed up", "vault", a.cfg.Vaults[0].Name, "version", version, "encrypted", encrypt)
	return version, nil
}

// encryptFile encrypts src into dest with the configured encryptor.
func (a *App) encryptFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening backup for encryption: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted backup: %w", err)
	}
	defer out.Close()

	if err := a.encryptor.Encrypt(in, out); err != nil {
		return fmt.Errorf("encrypting backup: %w", err)
	}
	return nil
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if closer, ok := a.items.(io.Closer); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing item store: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
