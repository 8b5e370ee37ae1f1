// Package cache persists a digest-keyed snapshot of a source file's
// last resolve run: its diagnostics and declaration index. Parse
// consults Fresh before resolving — when every loaded file's digest
// still matches, the resolver is skipped and the cached diagnostics
// replayed — and refreshes the snapshot through Put otherwise. A local
// DSN is opened with gorm.io/gorm over the pure-Go glebarez/sqlite
// driver; a remote libsql/Turso DSN is opened directly through
// database/sql with the libsql-client-go driver.
//
// Callers that never configure a DSN never construct a Cache, so the
// default parse path does no I/O of its own.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/glebarez/sqlite"
)

// Entry is one cached row: the last digest a file was resolved at, plus
// the diagnostics and declaration-path snapshot produced that run, both
// stored as opaque JSON columns the caller (the root facade)
// marshals/unmarshals.
type Entry struct {
	FilePath        string         `gorm:"primaryKey;type:varchar(1024)"`
	Digest          string         `gorm:"type:varchar(64);index"`
	DiagnosticsJSON datatypes.JSON `gorm:"type:jsonb"`
	ReferencesJSON  datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

// TableName pins the table name so both backends agree on where rows live.
func (Entry) TableName() string { return "schemalang_cache_entries" }

// Digest hashes a file's text into the key Get/Put compare against,
// cheap enough to call on every completion/definition request.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Cache is the language-service cache, backed by either a local sqlite
// file (via gorm) or a remote libsql replica (via raw database/sql).
type Cache struct {
	gormDB *gorm.DB
	sqlDB  *sql.DB
}

// Open connects to dsn and ensures the cache table exists. A dsn
// beginning with "libsql://", "http://", or "https://" is treated as a
// remote replica; anything else is a local file path opened with the
// pure-Go glebarez/sqlite driver.
func Open(dsn string) (*Cache, error) {
	if dsn == "" {
		return nil, fmt.Errorf("cache: empty DSN")
	}

	if isRemoteDSN(dsn) {
		sqlDB, err := sql.Open("libsql", dsn)
		if err != nil {
			return nil, fmt.Errorf("cache: open libsql connection: %w", err)
		}
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("cache: ping libsql connection: %w", err)
		}
		if _, err := sqlDB.Exec(createTableSQL); err != nil {
			return nil, fmt.Errorf("cache: migrate: %w", err)
		}
		return &Cache{sqlDB: sqlDB}, nil
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cache: connect: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return &Cache{gormDB: db}, nil
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS schemalang_cache_entries (
	file_path varchar(1024) PRIMARY KEY,
	digest varchar(64),
	diagnostics_json jsonb,
	references_json jsonb,
	updated_at datetime
)`

func isRemoteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "https://")
}

// Get looks up the cached entry for filePath. ok is false when no row
// exists yet.
func (c *Cache) Get(filePath string) (Entry, bool, error) {
	if c.sqlDB != nil {
		return c.getSQL(filePath)
	}
	var e Entry
	err := c.gormDB.First(&e, "file_path = ?", filePath).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return e, true, nil
}

func (c *Cache) getSQL(filePath string) (Entry, bool, error) {
	row := c.sqlDB.QueryRow(
		`SELECT file_path, digest, diagnostics_json, references_json, updated_at
		   FROM schemalang_cache_entries WHERE file_path = ?`, filePath)

	var e Entry
	var diag, refs []byte
	if err := row.Scan(&e.FilePath, &e.Digest, &diag, &refs, &e.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	e.DiagnosticsJSON = datatypes.JSON(diag)
	e.ReferencesJSON = datatypes.JSON(refs)
	return e, true, nil
}

// Fresh reports whether the cached entry for filePath is still valid
// for the given text (its digest matches).
func (c *Cache) Fresh(filePath, text string) (Entry, bool, error) {
	e, ok, err := c.Get(filePath)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	return e, e.Digest == Digest(text), nil
}

// Put upserts the cached snapshot for filePath.
func (c *Cache) Put(filePath, digest string, diagnosticsJSON, referencesJSON []byte) error {
	now := time.Now()
	if c.sqlDB != nil {
		_, err := c.sqlDB.Exec(
			`INSERT INTO schemalang_cache_entries (file_path, digest, diagnostics_json, references_json, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(file_path) DO UPDATE SET
			   digest=excluded.digest,
			   diagnostics_json=excluded.diagnostics_json,
			   references_json=excluded.references_json,
			   updated_at=excluded.updated_at`,
			filePath, digest, diagnosticsJSON, referencesJSON, now)
		return err
	}

	e := Entry{
		FilePath:        filePath,
		Digest:          digest,
		DiagnosticsJSON: datatypes.JSON(diagnosticsJSON),
		ReferencesJSON:  datatypes.JSON(referencesJSON),
		UpdatedAt:       now,
	}
	return c.gormDB.Save(&e).Error
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	if c.sqlDB != nil {
		return c.sqlDB.Close()
	}
	sqlDB, err := c.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
