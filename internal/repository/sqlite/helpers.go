package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"railviz/internal/domain"
	"railviz/internal/repository"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// Time Helpers
// ============================================================================

// timestamps are stored as fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// ============================================================================
// Row Scanning Helpers
// ============================================================================

// graphRow holds the raw columns of the graphs table
type graphRow struct {
	id        string
	name      sql.NullString
	payload   []byte
	nodeCount int
	edgeCount int
	createdAt string
	updatedAt string
}

// scanArgs returns scan targets matching the SELECT column order, with or
// without the payload column
func (r *graphRow) scanArgs(withPayload bool) []interface{} {
	if withPayload {
		return []interface{}{&r.id, &r.name, &r.payload, &r.nodeCount, &r.edgeCount, &r.createdAt, &r.updatedAt}
	}
	return []interface{}{&r.id, &r.name, &r.nodeCount, &r.edgeCount, &r.createdAt, &r.updatedAt}
}

// toRecord converts the row to a repository record
func (r *graphRow) toRecord(withPayload bool) (*repository.GraphRecord, error) {
	created, err := parseTime(r.createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(r.updatedAt)
	if err != nil {
		return nil, err
	}

	rec := &repository.GraphRecord{
		ID:        r.id,
		Name:      nullToString(r.name),
		Nodes:     r.nodeCount,
		Edges:     r.edgeCount,
		CreatedAt: created,
		UpdatedAt: updated,
	}

	if withPayload {
		graph := domain.NewGraph()
		if err := json.Unmarshal(r.payload, graph); err != nil {
			return nil, fmt.Errorf("failed to unmarshal graph %s: %w", r.id, err)
		}
		graph.Normalize()
		rec.Graph = graph
	}
	return rec, nil
}
