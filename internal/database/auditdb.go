package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/incapscan/internal/model"
)

// FileName is the ledger file name inside the database directory.
const FileName = "incapscan.db"

// storedTimeFormat has a fixed width so text ordering is time ordering.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z"

// DefaultListLimit is used by ListAnalyses when limit is not positive.
const DefaultListLimit = 50

// AuditDB stores digest-only analysis records.
// It is safe for concurrent use; writes are serialized by the single
// connection.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ledger in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		digest TEXT NOT NULL,
		format TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score INTEGER NOT NULL,
		registry_status TEXT,
		congruence_status TEXT,
		fallback INTEGER NOT NULL DEFAULT 0,
		analyzed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_digest ON analyses(digest);
	CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// AnalysisRecord is one ledger row.
type AnalysisRecord struct {
	ID               int64
	RequestID        string
	Digest           string
	Format           string
	Verdict          model.Verdict
	Score            int
	RegistryStatus   model.RegistryStatus
	CongruenceStatus model.CongruenceStatus
	Fallback         bool
	AnalyzedAt       time.Time
}

// RecordFromReport projects a report onto the ledger columns.
func RecordFromReport(report *model.ForensicReport) AnalysisRecord {
	rec := AnalysisRecord{
		RequestID:  report.RequestID,
		Digest:     report.Digest,
		Format:     report.Extraction.Format,
		Verdict:    report.Assessment.Veredicto,
		Score:      report.Assessment.PuntajeVeracidad,
		Fallback:   report.Fallback,
		AnalyzedAt: report.StartedAt,
	}
	if rec.Format == "" {
		rec.Format = report.Document.Extension
	}
	if report.Registry != nil {
		rec.RegistryStatus = report.Registry.Status
	}
	if report.Congruence != nil {
		rec.CongruenceStatus = report.Congruence.Status
	}
	if rec.AnalyzedAt.IsZero() {
		rec.AnalyzedAt = time.Now()
	}
	return rec
}

// SaveAnalysis appends a record for the report and returns its ID.
func (adb *AuditDB) SaveAnalysis(ctx context.Context, report *model.ForensicReport) (int64, error) {
	if report == nil {
		return 0, ErrNilReport
	}
	rec := RecordFromReport(report)

	query := `
	INSERT INTO analyses (request_id, digest, format, verdict, score,
		registry_status, congruence_status, fallback, analyzed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := adb.db.ExecContext(ctx, query,
		rec.RequestID,
		rec.Digest,
		rec.Format,
		string(rec.Verdict),
		rec.Score,
		nullString(string(rec.RegistryStatus)),
		nullString(string(rec.CongruenceStatus)),
		boolToInt(rec.Fallback),
		rec.AnalyzedAt.UTC().Format(storedTimeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get analysis id: %w", err)
	}
	return id, nil
}

const selectColumns = `
	SELECT id, request_id, digest, format, verdict, score,
		registry_status, congruence_status, fallback, analyzed_at
	FROM analyses
	`

// ListAnalyses returns the most recent records first.
func (adb *AuditDB) ListAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := adb.db.QueryContext(ctx, selectColumns+`ORDER BY analyzed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByDigest returns every record for a document digest, most recent first.
// A digest that was never analyzed yields an empty slice.
func (adb *AuditDB) FindByDigest(ctx context.Context, digest string) ([]AnalysisRecord, error) {
	rows, err := adb.db.QueryContext(ctx, selectColumns+`WHERE digest = ? ORDER BY analyzed_at DESC, id DESC`, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to find analyses: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]AnalysisRecord, error) {
	records := make([]AnalysisRecord, 0)
	for rows.Next() {
		var (
			rec        AnalysisRecord
			verdict    string
			registry   sql.NullString
			congruence sql.NullString
			fallback   int
			analyzedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Digest, &rec.Format, &verdict, &rec.Score,
			&registry, &congruence, &fallback, &analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		rec.Verdict = model.Verdict(verdict)
		rec.RegistryStatus = model.RegistryStatus(registry.String)
		rec.CongruenceStatus = model.CongruenceStatus(congruence.String)
		rec.Fallback = fallback != 0
		rec.AnalyzedAt = parseTimestamp(analyzedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
