package drinks

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]Drink
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Drink{}}
}

func (r *MemoryRepo) Create(ctx context.Context, d Drink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; ok {
		return ErrConflict
	}
	if r.titleTaken(d.Title, "") {
		return ErrConflict
	}
	r.byID[d.ID] = clone(d)
	r.order = append(r.order, d.ID)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Drink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Drink, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.byID[id]))
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, mutate func(*Drink) error) (Drink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return Drink{}, ErrNotFound
	}
	next := clone(cur)
	if err := mutate(&next); err != nil {
		return Drink{}, err
	}
	next.ID = cur.ID
	if r.titleTaken(next.Title, id) {
		return Drink{}, ErrConflict
	}
	r.byID[id] = next
	return clone(next), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepo) titleTaken(title, exceptID string) bool {
	for id, d := range r.byID {
		if id != exceptID && d.Title == title {
			return true
		}
	}
	return false
}

func clone(d Drink) Drink {
	d.Recipe = append([]Ingredient(nil), d.Recipe...)
	return d
}
