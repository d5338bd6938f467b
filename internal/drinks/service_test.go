package drinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestService() (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	svc.clock = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, repo
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestService_CreateThenList(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	recipe := []Ingredient{{Name: "espresso", Color: "brown", Parts: 1}, {Name: "milk", Color: "white", Parts: 2.5}}
	d, err := svc.Create(ctx, NewInput("latte", recipe))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected generated id")
	}
	if d.Title != "latte" {
		t.Fatalf("unexpected title %q", d.Title)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != d.ID || list[0].Title != "latte" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(list[0].Recipe) != 2 || list[0].Recipe[1] != recipe[1] {
		t.Fatalf("recipe not preserved: %+v", list[0].Recipe)
	}
}

func TestService_TitleStoredAsSubmitted(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	r := []Ingredient{{Name: "water", Color: "blue", Parts: 1}}

	titles := []string{" Water ", "", strings.Repeat("é", maxTitleLen)}
	for _, title := range titles {
		if _, err := svc.Create(ctx, NewInput(title, r)); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(titles) {
		t.Fatalf("expected %d drinks, got %d", len(titles), len(list))
	}
	for i, d := range list {
		if d.Title != titles[i] {
			t.Fatalf("drink %d: listed title %q, created %q", i, d.Title, titles[i])
		}
	}

	if _, err := svc.Create(ctx, NewInput("Water", r)); err != nil {
		t.Fatalf("title differing only in whitespace: %v", err)
	}
}

func TestService_CreateValidation(t *testing.T) {
	cases := map[string]Input{
		"missing title":      {Recipe: raw(`[]`)},
		"missing recipe":     {Title: raw(`"mocha"`)},
		"null title":         {Title: raw(`null`), Recipe: raw(`[]`)},
		"numeric title":      {Title: raw(`7`), Recipe: raw(`[]`)},
		"recipe object":      {Title: raw(`"mocha"`), Recipe: raw(`{}`)},
		"recipe null":        {Title: raw(`"mocha"`), Recipe: raw(`null`)},
		"recipe string":      {Title: raw(`"mocha"`), Recipe: raw(`"water"`)},
		"element not object": {Title: raw(`"mocha"`), Recipe: raw(`[1]`)},
		"missing name":       {Title: raw(`"mocha"`), Recipe: raw(`[{"color":"brown","parts":1}]`)},
		"missing color":      {Title: raw(`"mocha"`), Recipe: raw(`[{"name":"coffee","parts":1}]`)},
		"missing parts":      {Title: raw(`"mocha"`), Recipe: raw(`[{"name":"coffee","color":"brown"}]`)},
		"parts not a number": {Title: raw(`"mocha"`), Recipe: raw(`[{"name":"coffee","color":"brown","parts":"1"}]`)},
		"second element bad": {Title: raw(`"mocha"`), Recipe: raw(`[{"name":"a","color":"b","parts":1},{"name":"c"}]`)},
		"null element":       {Title: raw(`"mocha"`), Recipe: raw(`[null]`)},
		"title too long":     {Title: raw(`"` + strings.Repeat("a", maxTitleLen+1) + `"`), Recipe: raw(`[]`)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo := newTestService()
			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if list, _ := repo.List(context.Background()); len(list) != 0 {
				t.Fatalf("store changed on failed create")
			}
		})
	}
}

func TestService_CreateAllowsEmptyRecipe(t *testing.T) {
	svc, _ := newTestService()
	d, err := svc.Create(context.Background(), Input{Title: raw(`"air"`), Recipe: raw(`[]`)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Recipe == nil || len(d.Recipe) != 0 {
		t.Fatalf("expected empty recipe, got %#v", d.Recipe)
	}
}

func TestService_CreateDuplicateTitleConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	water := []Ingredient{{Name: "water", Color: "blue", Parts: 1}}

	if _, err := svc.Create(ctx, NewInput("water", water)); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, NewInput("water", water))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("conflict should also be a persistence failure")
	}
}

func TestService_UpdatePartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	orig := []Ingredient{{Name: "water", Color: "blue", Parts: 1}}
	d, err := svc.Create(ctx, NewInput("water", orig))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Update(ctx, d.ID, Input{Title: raw(`"sparkling water"`)})
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if got.Title != "sparkling water" || len(got.Recipe) != 1 || got.Recipe[0] != orig[0] {
		t.Fatalf("unexpected drink after title update: %+v", got)
	}
	if !got.UpdatedAt.After(d.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}

	got, err = svc.Update(ctx, d.ID, Input{Recipe: raw(`[{"name":"soda","color":"clear","parts":3}]`)})
	if err != nil {
		t.Fatalf("update recipe: %v", err)
	}
	if got.Title != "sparkling water" || got.Recipe[0].Name != "soda" || got.Recipe[0].Parts != 3 {
		t.Fatalf("unexpected drink after recipe update: %+v", got)
	}
}

func TestService_UpdateNotFoundBeforeValidation(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(context.Background(), "missing", Input{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = svc.Update(context.Background(), "", Input{Title: raw(`"x"`)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestService_UpdateValidationLeavesRecordUnchanged(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	d, err := svc.Create(ctx, NewInput("water", []Ingredient{{Name: "water", Color: "blue", Parts: 1}}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := []Input{
		{},
		{Title: raw(`"new title"`), Recipe: raw(`[{"name":"water"}]`)},
		{Recipe: raw(`{}`)},
		{Title: raw(`42`)},
	}
	for i, in := range bad {
		if _, err := svc.Update(ctx, d.ID, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}

	got, ok := findDrink(t, repo, d.ID)
	if !ok {
		t.Fatalf("drink %s missing after failed updates", d.ID)
	}
	if got.Title != "water" || got.Recipe[0].Name != "water" {
		t.Fatalf("record changed by failed update: %+v", got)
	}
}

func TestService_UpdateToTakenTitleConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	r := []Ingredient{{Name: "x", Color: "y", Parts: 1}}
	if _, err := svc.Create(ctx, NewInput("tea", r)); err != nil {
		t.Fatalf("create: %v", err)
	}
	d, err := svc.Create(ctx, NewInput("coffee", r))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, d.ID, Input{Title: raw(`"tea"`)}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// Renaming to its own title is not a conflict.
	if _, err := svc.Update(ctx, d.ID, Input{Title: raw(`"coffee"`)}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestService_DeleteTwice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d, err := svc.Create(ctx, NewInput("water", []Ingredient{{Name: "water", Color: "blue", Parts: 1}}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := svc.Delete(ctx, "never-existed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if list, _ := svc.List(ctx); len(list) != 0 {
		t.Fatalf("expected empty list after delete")
	}
}

type failingRepo struct{ *MemoryRepo }

func (f *failingRepo) Create(context.Context, Drink) error { return fmt.Errorf("disk full") }

func (f *failingRepo) List(context.Context) ([]Drink, error) { return nil, fmt.Errorf("connection reset") }

func TestService_StorageFailuresArePersistenceErrors(t *testing.T) {
	svc := NewService(&failingRepo{MemoryRepo: NewMemoryRepo()})
	ctx := context.Background()

	_, err := svc.Create(ctx, NewInput("water", []Ingredient{{Name: "water", Color: "blue", Parts: 1}}))
	if !errors.Is(err, ErrPersistence) || errors.Is(err, ErrConflict) {
		t.Fatalf("expected plain ErrPersistence, got %v", err)
	}
	if _, err := svc.List(ctx); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestService_Seed(t *testing.T) {
	svc, _ := newTestService()
	seeded, err := svc.Seed(context.Background())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(seeded) != 1 || seeded[0].Title != "water" {
		t.Fatalf("unexpected seed: %+v", seeded)
	}
	want := Ingredient{Name: "water", Color: "blue", Parts: 1}
	if seeded[0].Recipe[0] != want {
		t.Fatalf("unexpected seed recipe: %+v", seeded[0].Recipe)
	}
}
