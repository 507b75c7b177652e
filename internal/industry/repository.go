package industry

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound = errors.New("user not found")
)

// Repository provides access to the industry catalog and to per-user
// industry selections.
type Repository interface {
	GetPreferences(userID int) ([]View, error)
	GetGuestPreferences() ([]View, error)
	SynchronizePreferences(userID int, desired []Selection) ([]View, error)
	SelectedIndustryIDs(userID int) ([]int, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	industries []Industry
	users      map[int]bool
	selections map[int]map[int]bool
}

func NewInMemoryRepository(industries []Industry, userIDs []int) *InMemoryRepository {
	r := &InMemoryRepository{
		industries: make([]Industry, 0, len(industries)),
		users:      make(map[int]bool, len(userIDs)),
		selections: make(map[int]map[int]bool),
	}
	r.industries = append(r.industries, industries...)
	sort.Slice(r.industries, func(i, j int) bool { return r.industries[i].ID < r.industries[j].ID })
	for _, id := range userIDs {
		r.users[id] = true
		r.selections[id] = make(map[int]bool)
	}
	return r
}

func (r *InMemoryRepository) GetPreferences(userID int) ([]View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.users[userID] {
		return nil, ErrNotFound
	}
	return r.viewsLocked(r.selections[userID]), nil
}

func (r *InMemoryRepository) GetGuestPreferences() ([]View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewsLocked(nil), nil
}

// SynchronizePreferences applies the minimal diff between the desired and the
// stored selection set. The whole batch lands under one lock so concurrent
// readers never observe a half-applied request.
func (r *InMemoryRepository) SynchronizePreferences(userID int, desired []Selection) ([]View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.users[userID] {
		return nil, ErrNotFound
	}
	stored := r.selections[userID]
	for _, sel := range desired {
		switch {
		case sel.IsSelected && !stored[sel.IndustryID]:
			stored[sel.IndustryID] = true
		case !sel.IsSelected && stored[sel.IndustryID]:
			delete(stored, sel.IndustryID)
		}
	}
	return r.viewsLocked(stored), nil
}

func (r *InMemoryRepository) SelectedIndustryIDs(userID int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.users[userID] {
		return nil, ErrNotFound
	}
	ids := make([]int, 0, len(r.selections[userID]))
	for id := range r.selections[userID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *InMemoryRepository) viewsLocked(selected map[int]bool) []View {
	out := make([]View, 0, len(r.industries))
	for _, ind := range r.industries {
		out = append(out, View{
			ID:          ind.ID,
			Name:        ind.Name,
			Description: ind.Description,
			IsSelected:  selected != nil && selected[ind.ID],
		})
	}
	return out
}
