package services

import (
	"sort"
	"sync"

	"github.com/justsurfingit/hiring-pipeline/internal/models"
)

// ApplicationStore is the in-memory list the UI renders. It is replaced
// wholesale after a load and patched by id after a confirmed mutation.
type ApplicationStore struct {
	mu    sync.RWMutex
	apps  []models.Application
	index map[string]int
}

func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{index: map[string]int{}}
}

func (s *ApplicationStore) Replace(apps []models.Application) {
	sorted := normalize(apps)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = sorted
	s.reindex()
}

// Patch swaps in the server's record for app.ID. Unknown ids are ignored and
// reported with false.
func (s *ApplicationStore) Patch(app models.Application) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[app.ID]
	if !ok {
		return false
	}
	if app.Job == nil {
		app.Job = s.apps[i].Job
	}
	s.apps[i] = app
	return true
}

func (s *ApplicationStore) Get(id string) (models.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Application{}, false
	}
	return s.apps[i], true
}

// Snapshot returns a copy of the collection in display order.
func (s *ApplicationStore) Snapshot() []models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Application, len(s.apps))
	copy(out, s.apps)
	return out
}

func (s *ApplicationStore) Breakdown() models.StatusBreakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.NewStatusBreakdown(s.apps)
}

func (s *ApplicationStore) reindex() {
	s.index = make(map[string]int, len(s.apps))
	for i, a := range s.apps {
		s.index[a.ID] = i
	}
}

// normalize drops duplicate ids (first wins) and orders newest first, ties
// broken by id.
func normalize(apps []models.Application) []models.Application {
	seen := make(map[string]struct{}, len(apps))
	out := make([]models.Application, 0, len(apps))
	for _, a := range apps {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Selection is the set of application ids the user has ticked.
type Selection struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: map[string]struct{}{}}
}

func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear empties the selection. Call it only after the bulk result was read.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = map[string]struct{}{}
}

// Keep narrows the selection to ids, e.g. the failed ids of a bulk result.
func (s *Selection) Keep(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}
