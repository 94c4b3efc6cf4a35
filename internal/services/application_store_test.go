package services_test

import (
	"testing"

	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/services"
)

func TestApplicationStore_ReplaceSortsAndDeduplicates(t *testing.T) {
	s := services.NewApplicationStore()
	s.Replace([]models.Application{
		app("b", "j1", models.StatusPending, 2),
		app("a", "j1", models.StatusPending, 2),
		app("c", "j1", models.StatusPending, 1),
		app("a", "j1", models.StatusRejected, 9),
	})

	snap := s.Snapshot()
	want := []string{"c", "a", "b"}
	if len(snap) != len(want) {
		t.Fatalf("len = %d", len(snap))
	}
	for i, id := range want {
		if snap[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, snap[i].ID, id)
		}
	}
	if got, _ := s.Get("a"); got.Status != models.StatusPending {
		t.Fatal("first occurrence of a duplicate must win")
	}
}

func TestApplicationStore_PatchUnknown(t *testing.T) {
	s := services.NewApplicationStore()
	if s.Patch(app("x", "j1", models.StatusReviewing, 1)) {
		t.Fatal("patching an unknown id must report false")
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("patch must not insert")
	}
}

func TestSelection(t *testing.T) {
	sel := services.NewSelection()
	sel.Toggle("2")
	sel.Toggle("1")
	sel.Toggle("3")
	sel.Toggle("3")

	ids := sel.IDs()
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("ids = %v", ids)
	}

	sel.Keep([]string{"2"})
	if ids := sel.IDs(); len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("after keep: %v", ids)
	}
	sel.Clear()
	if len(sel.IDs()) != 0 {
		t.Fatal("selection not cleared")
	}
}
