package drinks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const maxTitleLen = 80

// Input is a create or update request body. Fields stay raw so that a
// wrongly typed field is a validation failure, not a decode failure.
// A nil field was not supplied.
type Input struct {
	Title  json.RawMessage `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

func (in Input) hasTitle() bool  { return len(in.Title) > 0 }
func (in Input) hasRecipe() bool { return len(in.Recipe) > 0 }

// NewInput builds an Input from typed values, mainly for seeding and tests.
func NewInput(title string, recipe []Ingredient) Input {
	t, _ := json.Marshal(title)
	r, _ := json.Marshal(recipe)
	return Input{Title: t, Recipe: r}
}

// parseTitle keeps the title exactly as submitted, whitespace included.
func parseTitle(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: title is not valid JSON", ErrValidation)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: title must be a string", ErrValidation)
	}
	if len([]rune(s)) > maxTitleLen {
		return "", fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
	}
	return s, nil
}

// parseRecipe accepts a JSON array whose elements are objects carrying a
// string name, a string color and a numeric parts. Extra keys are dropped.
func parseRecipe(raw json.RawMessage) ([]Ingredient, error) {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return nil, fmt.Errorf("%w: recipe must be a list", ErrValidation)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: recipe must be a list", ErrValidation)
	}

	out := make([]Ingredient, 0, len(elems))
	for i, e := range elems {
		var obj map[string]any
		if err := json.Unmarshal(e, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: recipe[%d] must be an object", ErrValidation, i)
		}
		name, ok := obj["name"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: recipe[%d].name must be a string", ErrValidation, i)
		}
		color, ok := obj["color"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: recipe[%d].color must be a string", ErrValidation, i)
		}
		parts, ok := obj["parts"].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: recipe[%d].parts must be a number", ErrValidation, i)
		}
		out = append(out, Ingredient{Name: name, Color: color, Parts: parts})
	}
	return out, nil
}
