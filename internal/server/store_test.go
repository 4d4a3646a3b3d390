package server

import (
	"errors"
	"testing"
	"time"

	"github.com/nibzard/taskdeck/internal/task"
)

func TestStore(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return fixed }

	a, err := s.Create(task.Draft{Title: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Create(task.Draft{Title: "b", Description: "bee"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
	if !a.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, fixed)
	}

	if _, err := s.Create(task.Draft{Title: " "}); err == nil {
		t.Error("expected blank title to be rejected")
	}

	updated, err := s.Update(2, task.CompletionPatch(true))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Completed || updated.Description != "bee" || updated.UpdatedAt == nil {
		t.Errorf("Update() = %+v", updated)
	}

	list := s.List()
	list[0].Title = "mutated"
	if got, _ := s.Get(1); got.Title != "a" {
		t.Error("List() must return a copy")
	}

	if err := s.Delete(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice error = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(99, task.Patch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(99) error = %v, want ErrNotFound", err)
	}
}
