package drinks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation  = errors.New("drinks: validation failed")
	ErrNotFound    = errors.New("drinks: not found")
	ErrPersistence = errors.New("drinks: persistence failure")
	// ErrConflict also matches ErrPersistence.
	ErrConflict = fmt.Errorf("%w: title already exists", ErrPersistence)
)

// Service owns the drink lifecycle: a drink is either present or absent.
//
// Invariants:
// - Every stored recipe element has a name, a color and numeric parts.
// - A failed create or update leaves the store unchanged.
// - Titles are unique.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now, newID: uuid.NewString}
}

func (s *Service) Create(ctx context.Context, in Input) (Drink, error) {
	if !in.hasTitle() || !in.hasRecipe() {
		return Drink{}, fmt.Errorf("%w: title and recipe are required", ErrValidation)
	}
	title, err := parseTitle(in.Title)
	if err != nil {
		return Drink{}, err
	}
	recipe, err := parseRecipe(in.Recipe)
	if err != nil {
		return Drink{}, err
	}

	now := s.clock().UTC()
	d := Drink{
		ID:        s.newID(),
		Title:     title,
		Recipe:    recipe,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return Drink{}, persistenceErr(err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]Drink, error) {
	ds, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistenceErr(err)
	}
	return ds, nil
}

// Update applies the supplied fields to an existing drink. An unknown id is
// reported before any validation of the input.
func (s *Service) Update(ctx context.Context, id string, in Input) (Drink, error) {
	if strings.TrimSpace(id) == "" {
		return Drink{}, ErrNotFound
	}

	d, err := s.repo.Update(ctx, id, func(d *Drink) error {
		if !in.hasTitle() && !in.hasRecipe() {
			return fmt.Errorf("%w: title or recipe is required", ErrValidation)
		}
		if in.hasTitle() {
			title, err := parseTitle(in.Title)
			if err != nil {
				return err
			}
			d.Title = title
		}
		if in.hasRecipe() {
			recipe, err := parseRecipe(in.Recipe)
			if err != nil {
				return err
			}
			d.Recipe = recipe
		}
		d.UpdatedAt = s.clock().UTC()
		return nil
	})
	if err != nil {
		return Drink{}, persistenceErr(err)
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return persistenceErr(err)
	}
	return nil
}

// Seed stores the starter menu. It is meant to run on an empty store right
// after a reset.
func (s *Service) Seed(ctx context.Context) ([]Drink, error) {
	water := NewInput("water", []Ingredient{{Name: "water", Color: "blue", Parts: 1}})
	d, err := s.Create(ctx, water)
	if err != nil {
		return nil, err
	}
	return []Drink{d}, nil
}

// persistenceErr keeps classified errors and folds the rest into
// ErrPersistence so storage details never reach callers unclassified.
func persistenceErr(err error) error {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}
