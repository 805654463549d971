package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"dogmove/pipeline"
	"dogmove/utils"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// Run registry: every executed preparation run is recorded together with its
// windowing parameters and, optionally, the windowed rows it produced.
// Persistence is opt-in; the pipeline itself never touches the database.

// Run describes one pipeline execution.
type Run struct {
	ID             string
	CreatedAt      time.Time
	InputPath      string
	WindowSize     int
	StepSize       int
	BalanceMode    string
	Strategy       string
	ReferenceClass string
	Seed           int64
	RecordCount    int
	WindowCount    int
}

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createRunsTable := `
    CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        input_path TEXT NOT NULL,
        window_size INTEGER NOT NULL,
        step_size INTEGER NOT NULL,
        balance_mode TEXT NOT NULL,
        strategy TEXT NOT NULL,
        reference_class TEXT,
        seed INTEGER NOT NULL DEFAULT 0,
        record_count INTEGER NOT NULL DEFAULT 0,
        window_count INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
    `

	createWindowRowsTable := `
    CREATE TABLE IF NOT EXISTS window_rows (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        dog_id TEXT NOT NULL,
        behavior TEXT NOT NULL,
        channels TEXT NOT NULL,
        FOREIGN KEY (run_id) REFERENCES runs(id)
    );
    CREATE INDEX IF NOT EXISTS idx_window_rows_run ON window_rows(run_id);
    `

	if _, err := db.Exec(createRunsTable); err != nil {
		return fmt.Errorf("error creating runs table: %s", err)
	}
	if _, err := db.Exec(createWindowRowsTable); err != nil {
		return fmt.Errorf("error creating window_rows table: %s", err)
	}
	return nil
}

func (c *SQLiteClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// StoreRun records a pipeline execution. A missing ID or timestamp is filled
// in before insertion.
func (c *SQLiteClient) StoreRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := c.db.Exec(`
		INSERT INTO runs (
			id, created_at, input_path, window_size, step_size,
			balance_mode, strategy, reference_class, seed,
			record_count, window_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt,
		run.InputPath,
		run.WindowSize,
		run.StepSize,
		run.BalanceMode,
		run.Strategy,
		run.ReferenceClass,
		run.Seed,
		run.RecordCount,
		run.WindowCount,
	)
	if err != nil {
		return fmt.Errorf("error storing run: %s", err)
	}
	return nil
}

// StoreWindowRows persists a windowed table under an existing run. Channel
// values are stored as a JSON array to keep the schema independent of the
// channel layout.
func (c *SQLiteClient) StoreWindowRows(runID string, t pipeline.WindowTable) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare("INSERT INTO window_rows (run_id, dog_id, behavior, channels) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		channelsJSON, err := json.Marshal(row.Channels)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error marshaling channels: %s", err)
		}
		if _, err := stmt.Exec(runID, row.DogID, row.Behavior, string(channelsJSON)); err != nil {
			tx.Rollback()
			return fmt.Errorf("error executing statement: %s", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID.
func (c *SQLiteClient) GetRun(id string) (Run, bool, error) {
	row := c.db.QueryRow(`
		SELECT id, created_at, input_path, window_size, step_size,
		       balance_mode, strategy, reference_class, seed,
		       record_count, window_count
		FROM runs WHERE id = ?`, id)

	var run Run
	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.InputPath, &run.WindowSize, &run.StepSize,
		&run.BalanceMode, &run.Strategy, &run.ReferenceClass, &run.Seed,
		&run.RecordCount, &run.WindowCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, false, nil
		}
		return Run{}, false, fmt.Errorf("failed to retrieve run: %s", err)
	}
	return run, true, nil
}

// ListRuns returns all recorded runs, newest first.
func (c *SQLiteClient) ListRuns() ([]Run, error) {
	rows, err := c.db.Query(`
		SELECT id, created_at, input_path, window_size, step_size,
		       balance_mode, strategy, reference_class, seed,
		       record_count, window_count
		FROM runs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %s", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID, &run.CreatedAt, &run.InputPath, &run.WindowSize, &run.StepSize,
			&run.BalanceMode, &run.Strategy, &run.ReferenceClass, &run.Seed,
			&run.RecordCount, &run.WindowCount,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning run: %s", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetWindowRows loads the windowed rows stored under a run.
func (c *SQLiteClient) GetWindowRows(runID string) ([]pipeline.WindowRow, error) {
	rows, err := c.db.Query("SELECT dog_id, behavior, channels FROM window_rows WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("error querying window rows: %s", err)
	}
	defer rows.Close()

	var out []pipeline.WindowRow
	for rows.Next() {
		var dogID, behavior, channelsJSON string
		if err := rows.Scan(&dogID, &behavior, &channelsJSON); err != nil {
			return nil, fmt.Errorf("error scanning window row: %s", err)
		}
		var channels []float64
		if err := json.Unmarshal([]byte(channelsJSON), &channels); err != nil {
			return nil, fmt.Errorf("error unmarshaling channels: %s", err)
		}
		out = append(out, pipeline.WindowRow{Channels: channels, DogID: dogID, Behavior: behavior})
	}
	return out, nil
}
