package repository

import (
	"context"
	"errors"
	"time"

	"railviz/internal/domain"
)

// ErrNotFound is returned when no graph is stored under an id
var ErrNotFound = errors.New("graph not found")

// GraphRecord is a stored payload with its bookkeeping columns. Graph is
// nil in listings.
type GraphRecord struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Nodes     int           `json:"nodes"`
	Edges     int           `json:"edges"`
	Graph     *domain.Graph `json:"graph,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// GraphStore persists uploaded payloads so sessions can be re-rendered and
// downloaded
type GraphStore interface {
	// SaveGraph inserts or replaces the payload stored under id
	SaveGraph(ctx context.Context, id, name string, graph *domain.Graph) error
	GetGraph(ctx context.Context, id string) (*GraphRecord, error)
	ListGraphs(ctx context.Context) ([]GraphRecord, error)
	DeleteGraph(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}
