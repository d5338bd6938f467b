package drinks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coffee-shop/internal/storage"
	"coffee-shop/pkg/utils"
)

// SQLRepository stores drinks in the drinks table. The recipe is kept as a
// JSON text blob and expanded on read.
type SQLRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewSQLRepository(db *sql.DB, dialect storage.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrink(row rowScanner) (Drink, error) {
	var (
		d                Drink
		recipe           string
		created, updated int64
	)
	if err := row.Scan(&d.ID, &d.Title, &recipe, &created, &updated); err != nil {
		return Drink{}, err
	}
	if err := json.Unmarshal([]byte(recipe), &d.Recipe); err != nil {
		return Drink{}, fmt.Errorf("decode recipe of drink %s: %w", d.ID, err)
	}
	d.CreatedAt = time.UnixMilli(created).UTC()
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return d, nil
}

func encodeRecipe(recipe []Ingredient) (string, error) {
	if recipe == nil {
		recipe = []Ingredient{}
	}
	b, err := json.Marshal(recipe)
	if err != nil {
		return "", fmt.Errorf("encode recipe: %w", err)
	}
	return string(b), nil
}

func (r *SQLRepository) Create(ctx context.Context, d Drink) error {
	recipe, err := encodeRecipe(d.Recipe)
	if err != nil {
		return err
	}
	q := r.dialect.Rebind(`
INSERT INTO drinks (id, title, recipe, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`)
	_, err = r.db.ExecContext(ctx, q,
		d.ID,
		d.Title,
		recipe,
		d.CreatedAt.UnixMilli(),
		d.UpdatedAt.UnixMilli(),
	)
	if storage.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *SQLRepository) List(ctx context.Context) ([]Drink, error) {
	const q = `
SELECT id, title, recipe, created_at, updated_at
FROM drinks
ORDER BY created_at, id
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Drink{}
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Update(ctx context.Context, id string, mutate func(*Drink) error) (Drink, error) {
	sel := `
SELECT id, title, recipe, created_at, updated_at
FROM drinks
WHERE id = ?
`
	if r.dialect == storage.Postgres {
		// Serialize concurrent read-merge-write on the same row.
		sel += "FOR UPDATE\n"
	}
	sel = r.dialect.Rebind(sel)
	upd := r.dialect.Rebind(`
UPDATE drinks
SET title = ?, recipe = ?, updated_at = ?
WHERE id = ?
`)

	var out Drink
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		d, err := scanDrink(tx.QueryRowContext(ctx, sel, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := mutate(&d); err != nil {
			return err
		}
		d.ID = id

		recipe, err := encodeRecipe(d.Recipe)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upd, d.Title, recipe, d.UpdatedAt.UnixMilli(), id); err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return Drink{}, err
	}
	return out, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	q := r.dialect.Rebind(`DELETE FROM drinks WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
