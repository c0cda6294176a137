package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// InstalledServer is a locally registered MCP server record. The
// registry version is compared against Version for conflict detection.
type InstalledServer struct {
	ID          string
	Name        string
	Version     string
	ServerURL   string
	Transport   string // "sse" (default) or "streamable-http"
	AuthType    string // "none", "headers", "oauth"
	Source      string // "registry" or "custom"
	InstalledAt time.Time
	UpdatedAt   time.Time
}

// ServerStore persists installed MCP server records in sqlite
type ServerStore struct {
	db *sql.DB
}

func NewServerStore(dataDir string) (*ServerStore, error) {
	dbPath := filepath.Join(dataDir, "servers.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &ServerStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (ss *ServerStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS servers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		server_url TEXT,
		transport TEXT,
		auth_type TEXT,
		source TEXT,
		installed_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_servers_name ON servers(name);
	`

	if _, err := ss.db.Exec(schema); err != nil {
		return err
	}

	// Handles databases created before the source column existed
	if err := ss.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

func (ss *ServerStore) migrateSchema() error {
	hasSource, err := columnExists(ss.db, "servers", "source")
	if err != nil {
		return fmt.Errorf("failed to check for source column: %w", err)
	}

	if !hasSource {
		if _, err := ss.db.Exec(`ALTER TABLE servers ADD COLUMN source TEXT DEFAULT 'registry'`); err != nil {
			return fmt.Errorf("failed to add source column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func columnExists(db *sql.DB, tableName, columnName string) (bool, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)
	rows, err := db.Query(query)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var defaultValue interface{}
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}

		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

func (ss *ServerStore) Save(server InstalledServer) error {
	query := `
	INSERT OR REPLACE INTO servers (id, name, version, server_url, transport, auth_type, source, installed_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ss.db.Exec(query,
		server.ID,
		server.Name,
		server.Version,
		server.ServerURL,
		server.Transport,
		server.AuthType,
		server.Source,
		server.InstalledAt,
		server.UpdatedAt,
	)

	return err
}

func (ss *ServerStore) Load(id string) (*InstalledServer, error) {
	query := `
	SELECT id, name, version, server_url, transport, auth_type, source, installed_at, updated_at
	FROM servers
	WHERE id = ?
	`

	var server InstalledServer
	err := ss.db.QueryRow(query, id).Scan(
		&server.ID,
		&server.Name,
		&server.Version,
		&server.ServerURL,
		&server.Transport,
		&server.AuthType,
		&server.Source,
		&server.InstalledAt,
		&server.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &server, nil
}

func (ss *ServerStore) List() ([]InstalledServer, error) {
	query := `
	SELECT id, name, version, server_url, transport, auth_type, source, installed_at, updated_at
	FROM servers
	ORDER BY installed_at DESC
	`

	rows, err := ss.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []InstalledServer
	for rows.Next() {
		var server InstalledServer
		err := rows.Scan(
			&server.ID,
			&server.Name,
			&server.Version,
			&server.ServerURL,
			&server.Transport,
			&server.AuthType,
			&server.Source,
			&server.InstalledAt,
			&server.UpdatedAt,
		)
		if err != nil {
			continue
		}
		servers = append(servers, server)
	}

	return servers, nil
}

func (ss *ServerStore) Delete(id string) error {
	query := `DELETE FROM servers WHERE id = ?`
	_, err := ss.db.Exec(query, id)
	return err
}

func (ss *ServerStore) IsInstalled(id string) bool {
	server, err := ss.Load(id)
	return err == nil && server != nil
}

// Update updates an existing server record
func (ss *ServerStore) Update(server InstalledServer) error {
	updateSQL := `
		UPDATE servers
		SET name = ?,
			version = ?,
			server_url = ?,
			transport = ?,
			auth_type = ?,
			source = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := ss.db.Exec(updateSQL,
		server.Name,
		server.Version,
		server.ServerURL,
		server.Transport,
		server.AuthType,
		server.Source,
		server.UpdatedAt,
		server.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("server %s not found in database", server.ID)
	}

	return nil
}

func (ss *ServerStore) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}
