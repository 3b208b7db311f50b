package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"railviz/internal/domain"
	"railviz/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func sampleGraph() *domain.Graph {
	g := domain.NewGraph()
	g.AddNode(*domain.NewNode("p1", domain.NodeTypePoint, "W1", 0.2, 0.5))
	g.AddNode(*domain.NewSignal("s1", "A1", 0.6, 0.5, 45, domain.DirectionIn))
	g.AddNode(domain.Node{UUID: "free", Type: domain.NodeTypeEndpoint})
	g.AddEdge(*domain.NewEdge("edge-00001", "p1", "s1", 3))
	g.AddEdge(*domain.NewEdge("edge-00002", "p1", "free", 0))
	g.Properties = domain.Properties{MaxX: 1.5, MaxY: 0.75}
	return g
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid", sql.NullString{String: "hello", Valid: true}, "hello"},
		{"invalid", sql.NullString{String: "ignored", Valid: false}, ""},
		{"empty valid", sql.NullString{String: "", Valid: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestStringToNull(t *testing.T) {
	assertEqual(t, sql.NullString{}, stringToNull(""))
	assertEqual(t, sql.NullString{String: "x", Valid: true}, stringToNull("x"))
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 1500, time.FixedZone("CET", 3600))
	parsed, err := parseTime(formatTime(now))
	assertNoError(t, err)
	if !parsed.Equal(now) {
		t.Fatalf("expected %v, got %v", now, parsed)
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Fatal("expected error for bad timestamp")
	}
}

func TestTimeFormatSortsLexically(t *testing.T) {
	a := formatTime(time.Date(2024, 1, 1, 0, 0, 5, 100000000, time.UTC))
	b := formatTime(time.Date(2024, 1, 1, 0, 0, 5, 120000000, time.UTC))
	if !(a < b) {
		t.Fatalf("expected %s < %s", a, b)
	}
}

// ============================================================================
// Graph Store Tests
// ============================================================================

func TestSaveAndGetGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveGraph(ctx, "g1", "Station A", sampleGraph()))

	rec, err := repo.GetGraph(ctx, "g1")
	assertNoError(t, err)

	assertEqual(t, "g1", rec.ID)
	assertEqual(t, "Station A", rec.Name)
	assertEqual(t, 3, rec.Nodes)
	assertEqual(t, 2, rec.Edges)
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	g := rec.Graph
	if g == nil {
		t.Fatal("expected payload to be loaded")
	}
	assertEqual(t, sampleGraph().Properties, g.Properties)
	assertEqual(t, domain.NodeTypeSignal, g.Nodes[1].Type)
	assertEqual(t, 45.0, g.Nodes[1].Angle)
	assertEqual(t, domain.DirectionIn, g.Nodes[1].Direction)
	assertEqual(t, domain.EdgeType(3), g.Edges[0].Type)
	if g.Nodes[2].HasPosition() {
		t.Error("free node must stay unpositioned")
	}
}

func TestSaveGraphDoesNotStoreDerivedPositions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := sampleGraph()
	g.Nodes[0].Pin(123, 456)
	assertNoError(t, repo.SaveGraph(ctx, "g1", "", g))

	rec, err := repo.GetGraph(ctx, "g1")
	assertNoError(t, err)
	if rec.Graph.Nodes[0].Pinned() {
		t.Error("pixel positions are derived and must not be persisted")
	}
}

func TestSaveGraphReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveGraph(ctx, "g1", "first", sampleGraph()))
	first, err := repo.GetGraph(ctx, "g1")
	assertNoError(t, err)

	smaller := domain.NewGraph()
	smaller.AddNode(*domain.NewNode("only", domain.NodeTypePoint, "", 0.5, 0.5))
	assertNoError(t, repo.SaveGraph(ctx, "g1", "", smaller))

	rec, err := repo.GetGraph(ctx, "g1")
	assertNoError(t, err)
	assertEqual(t, 1, rec.Nodes)
	assertEqual(t, 0, rec.Edges)
	assertEqual(t, "first", rec.Name)
	if !rec.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", first.CreatedAt, rec.CreatedAt)
	}
}

func TestGetGraphNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetGraph(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListGraphs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	records, err := repo.ListGraphs(ctx)
	assertNoError(t, err)
	assertEqual(t, 0, len(records))

	assertNoError(t, repo.SaveGraph(ctx, "a", "A", sampleGraph()))
	assertNoError(t, repo.SaveGraph(ctx, "b", "B", sampleGraph()))

	records, err = repo.ListGraphs(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(records))
	for _, rec := range records {
		if rec.Graph != nil {
			t.Errorf("listing must not load payload for %s", rec.ID)
		}
	}
}

func TestDeleteGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveGraph(ctx, "g1", "", sampleGraph()))
	assertNoError(t, repo.DeleteGraph(ctx, "g1"))

	if _, err := repo.GetGraph(ctx, "g1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteGraph(ctx, "g1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railviz.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.SaveGraph(ctx, "g1", "kept", sampleGraph()))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	rec, err := reopened.GetGraph(ctx, "g1")
	assertNoError(t, err)
	assertEqual(t, "kept", rec.Name)
}

func TestRepositoryImplementsGraphStore(t *testing.T) {
	var _ repository.GraphStore = (*Repository)(nil)
}
