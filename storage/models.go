package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CachedModel is one synced provider model row. Pricing is stored as
// cost per million tokens; zero means unknown or free.
type CachedModel struct {
	InternalName  string
	Name          string
	Provider      string
	Capabilities  string // comma-joined capability labels
	ContextWindow int64
	PricingInput  float64
	PricingOutput float64
	SyncedAt      time.Time
}

// ModelCache persists the last successful model sync per provider so
// the console has data before (or without) a live backend.
type ModelCache struct {
	db *sql.DB
}

func NewModelCache(dataDir string) (*ModelCache, error) {
	dbPath := filepath.Join(dataDir, "models.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := &ModelCache{db: db}

	if err := cache.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cache, nil
}

func (mc *ModelCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		internal_name TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		capabilities TEXT,
		context_window INTEGER,
		pricing_input REAL,
		pricing_output REAL,
		synced_at DATETIME NOT NULL,
		PRIMARY KEY (provider, internal_name)
	);
	CREATE INDEX IF NOT EXISTS idx_models_provider ON models(provider);
	`

	if _, err := mc.db.Exec(schema); err != nil {
		return err
	}

	if err := mc.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

func (mc *ModelCache) migrateSchema() error {
	hasContextWindow, err := columnExists(mc.db, "models", "context_window")
	if err != nil {
		return fmt.Errorf("failed to check for context_window column: %w", err)
	}

	if !hasContextWindow {
		if _, err := mc.db.Exec(`ALTER TABLE models ADD COLUMN context_window INTEGER DEFAULT 0`); err != nil {
			return fmt.Errorf("failed to add context_window column: %w", err)
		}
	}

	return nil
}

// ReplaceProvider swaps the cached rows for one provider with the
// result of a fresh sync, atomically.
func (mc *ModelCache) ReplaceProvider(provider string, models []CachedModel) error {
	tx, err := mc.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM models WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("failed to clear provider rows: %w", err)
	}

	insert := `
	INSERT INTO models (internal_name, provider, name, capabilities, context_window, pricing_input, pricing_output, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	for _, m := range models {
		_, err := tx.Exec(insert,
			m.InternalName,
			provider,
			m.Name,
			m.Capabilities,
			m.ContextWindow,
			m.PricingInput,
			m.PricingOutput,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert model %s: %w", m.InternalName, err)
		}
	}

	return tx.Commit()
}

// ListProvider returns the cached models for one provider
func (mc *ModelCache) ListProvider(provider string) ([]CachedModel, error) {
	query := `
	SELECT internal_name, provider, name, capabilities, context_window, pricing_input, pricing_output, synced_at
	FROM models
	WHERE provider = ?
	ORDER BY name
	`

	rows, err := mc.db.Query(query, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanModels(rows)
}

// ListAll returns every cached model across providers
func (mc *ModelCache) ListAll() ([]CachedModel, error) {
	query := `
	SELECT internal_name, provider, name, capabilities, context_window, pricing_input, pricing_output, synced_at
	FROM models
	ORDER BY provider, name
	`

	rows, err := mc.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanModels(rows)
}

func scanModels(rows *sql.Rows) ([]CachedModel, error) {
	var models []CachedModel
	for rows.Next() {
		var m CachedModel
		err := rows.Scan(
			&m.InternalName,
			&m.Provider,
			&m.Name,
			&m.Capabilities,
			&m.ContextWindow,
			&m.PricingInput,
			&m.PricingOutput,
			&m.SyncedAt,
		)
		if err != nil {
			continue
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// LastSync returns when the provider was last synced, zero time when never
func (mc *ModelCache) LastSync(provider string) (time.Time, error) {
	var synced sql.NullTime
	err := mc.db.QueryRow(`SELECT MAX(synced_at) FROM models WHERE provider = ?`, provider).Scan(&synced)
	if err != nil {
		return time.Time{}, err
	}
	if !synced.Valid {
		return time.Time{}, nil
	}
	return synced.Time, nil
}

func (mc *ModelCache) Close() error {
	if mc.db != nil {
		return mc.db.Close()
	}
	return nil
}
