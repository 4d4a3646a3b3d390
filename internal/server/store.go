package server

import (
	"errors"
	"sync"
	"time"

	"github.com/nibzard/taskdeck/internal/task"
)

// ErrNotFound is returned for unknown task IDs.
var ErrNotFound = errors.New("task not found")

// Store is an in-memory, insertion-ordered task store.
// IDs start at 1 and are never reused.
type Store struct {
	mu     sync.RWMutex
	tasks  []task.Task
	nextID int64
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// List returns a copy of all tasks in creation order.
func (s *Store) List() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given id.
func (s *Store) Get(id int64) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	return s.tasks[i], nil
}

// Create adds a task built from d.
func (s *Store) Create(d task.Draft) (task.Task, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return task.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := task.Task{
		ID:          s.nextID,
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   task.NewTimestamp(s.now()),
	}
	s.nextID++
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Update applies p to task id.
func (s *Store) Update(id int64, p task.Patch) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	p.Apply(&s.tasks[i])
	s.tasks[i].UpdatedAt = task.NewTimestamp(s.now())
	return s.tasks[i], nil
}

// Delete removes task id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// index must be called with mu held.
func (s *Store) index(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
