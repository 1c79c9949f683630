package roster

import (
	"testing"

	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
)

// indexVec builds a 128-component encoding with the value in the first
// component.
func indexVec(v float32) encoding.FaceEncoding {
	enc := make(encoding.FaceEncoding, encoding.DefaultDim)
	enc[0] = v
	return enc
}

func indexStudent(t *testing.T, id int64, name string, v float32) database.Student {
	t.Helper()
	stored, err := encoding.Marshal(indexVec(v))
	if err != nil {
		t.Fatalf("failed to marshal encoding: %v", err)
	}
	return database.Student{ID: id, Name: name, FaceEncoding: stored}
}

func TestIndex_SearchFindsNearest(t *testing.T) {
	ix := NewIndex(encoding.DefaultDim)
	ix.Rebuild([]database.Student{
		indexStudent(t, 1, "Alice", 0.0),
		indexStudent(t, 2, "Bob", 1.0),
		indexStudent(t, 3, "Carol", 2.0),
	})

	entries, err := ix.Search(indexVec(0.9), 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Student.Name != "Bob" {
		t.Errorf("expected Bob, got %s", entries[0].Student.Name)
	}
	if d := entries[0].Distance; d < 0.09 || d > 0.11 {
		t.Errorf("expected distance near 0.1, got %v", d)
	}
}

func TestIndex_RebuildSkipsUnparseable(t *testing.T) {
	ix := NewIndex(encoding.DefaultDim)
	ix.Rebuild([]database.Student{
		indexStudent(t, 1, "Alice", 0.0),
		{ID: 2, Name: "Broken", FaceEncoding: "not json"},
	})

	if ix.Len() != 1 {
		t.Errorf("expected 1 indexed student, got %d", ix.Len())
	}
}

func TestIndex_AddAndRemove(t *testing.T) {
	ix := NewIndex(encoding.DefaultDim)
	ix.Rebuild(nil)

	if err := ix.Add(indexStudent(t, 1, "Alice", 0.5)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("expected 1 student after Add, got %d", ix.Len())
	}

	entries, err := ix.Search(indexVec(0.5), 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if entries[0].Student.ID != 1 {
		t.Errorf("expected student 1, got %d", entries[0].Student.ID)
	}

	ix.Remove(1)
	if ix.Len() != 0 {
		t.Errorf("expected empty index after Remove, got %d", ix.Len())
	}
	if _, err := ix.Search(indexVec(0.5), 1); err == nil {
		t.Error("expected an error searching an empty index")
	}
}

func TestIndex_AddRejectsUnparseable(t *testing.T) {
	ix := NewIndex(encoding.DefaultDim)
	if err := ix.Add(database.Student{ID: 1, FaceEncoding: "nope"}); err == nil {
		t.Error("expected an error for an unparseable encoding")
	}
}

func TestIndex_SearchEmpty(t *testing.T) {
	ix := NewIndex(encoding.DefaultDim)
	if _, err := ix.Search(indexVec(0.1), 3); err == nil {
		t.Error("expected an error for an unbuilt index")
	}
}
