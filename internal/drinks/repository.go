package drinks

import "context"

// Repository is the persistence contract for drinks.
//
// Implementations return ErrNotFound for unknown ids and ErrConflict for a
// duplicate title. Other errors are passed through unclassified.
type Repository interface {
	Create(ctx context.Context, d Drink) error
	// List returns every drink ordered by creation time.
	List(ctx context.Context) ([]Drink, error)
	// Update loads id, applies mutate and stores the result atomically.
	// If mutate fails nothing is written.
	Update(ctx context.Context, id string, mutate func(*Drink) error) (Drink, error)
	Delete(ctx context.Context, id string) error
}
