package drinks

import "time"

// Ingredient is one component of a recipe. Parts is a relative quantity.
type Ingredient struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

// Drink is a menu item. Recipe order is preserved as given.
type Drink struct {
	ID     string       `json:"id" db:"id"`
	Title  string       `json:"title" db:"title"`
	Recipe []Ingredient `json:"recipe" db:"recipe"`

	// Used for list ordering only; not part of any API projection.
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// ShortIngredient is the public view of an ingredient: no name.
type ShortIngredient struct {
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

type ShortView struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

type LongView struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short is the public representation; ingredient names are withheld.
func (d Drink) Short() ShortView {
	out := ShortView{ID: d.ID, Title: d.Title, Recipe: make([]ShortIngredient, 0, len(d.Recipe))}
	for _, in := range d.Recipe {
		out.Recipe = append(out.Recipe, ShortIngredient{Color: in.Color, Parts: in.Parts})
	}
	return out
}

// Long is the full representation for callers holding get:drinks-detail.
func (d Drink) Long() LongView {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return LongView{ID: d.ID, Title: d.Title, Recipe: recipe}
}

func ShortList(ds []Drink) []ShortView {
	out := make([]ShortView, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Short())
	}
	return out
}

func LongList(ds []Drink) []LongView {
	out := make([]LongView, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Long())
	}
	return out
}
