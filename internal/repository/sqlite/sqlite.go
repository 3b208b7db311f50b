package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"railviz/internal/domain"
	"railviz/internal/repository"

	_ "modernc.org/sqlite"
)

// memoryPath selects a private in-memory database
const memoryPath = ":memory:"

// Repository implements repository.GraphStore using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != memoryPath {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphs (
		id TEXT PRIMARY KEY,
		name TEXT,
		payload JSON NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_graphs_updated ON graphs(updated_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveGraph inserts or replaces a payload, keeping the original creation time
func (r *Repository) SaveGraph(ctx context.Context, id, name string, graph *domain.Graph) error {
	payload, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	now := formatTime(time.Now())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO graphs (id, name, payload, node_count, edge_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = COALESCE(excluded.name, graphs.name),
			payload = excluded.payload,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			updated_at = excluded.updated_at
	`, id, stringToNull(name), payload, len(graph.Nodes), len(graph.Edges), now, now)

	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

// GetGraph loads a stored payload
func (r *Repository) GetGraph(ctx context.Context, id string) (*repository.GraphRecord, error) {
	var row graphRow
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, payload, node_count, edge_count, created_at, updated_at
		FROM graphs WHERE id = ?
	`, id).Scan(row.scanArgs(true)...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query graph: %w", err)
	}

	return row.toRecord(true)
}

// ListGraphs returns every stored payload without its body, newest first
func (r *Repository) ListGraphs(ctx context.Context) ([]repository.GraphRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, node_count, edge_count, created_at, updated_at
		FROM graphs ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}
	defer rows.Close()

	records := make([]repository.GraphRecord, 0)
	for rows.Next() {
		var row graphRow
		if err := rows.Scan(row.scanArgs(false)...); err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}
		rec, err := row.toRecord(false)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}
	return records, nil
}

// DeleteGraph removes a stored payload
func (r *Repository) DeleteGraph(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
