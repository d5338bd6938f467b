package audit

import (
	"context"
	"database/sql"
	"time"

	"coffee-shop/internal/storage"
)

// SQLRepo appends events to the audit_events table. It never updates or
// deletes rows.
type SQLRepo struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewSQLRepo(db *sql.DB, dialect storage.Dialect) *SQLRepo {
	return &SQLRepo{db: db, dialect: dialect}
}

func (r *SQLRepo) Append(ctx context.Context, e Event) error {
	q := r.dialect.Rebind(`
INSERT INTO audit_events (
  id, type, actor_subject, ip_address, drink_id, message, metadata, created_at
) VALUES (
  ?,?,?,?,?,?,?,?
)
`)
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.ActorSubject,
		e.IPAddress,
		e.DrinkID,
		e.Message,
		e.Metadata,
		e.CreatedAt.UnixMilli(),
	)
	return err
}

// ByDrink returns the events recorded for drinkID, oldest first.
func (r *SQLRepo) ByDrink(ctx context.Context, drinkID string) ([]Event, error) {
	q := r.dialect.Rebind(`
SELECT id, type, actor_subject, ip_address, drink_id, message, metadata, created_at
FROM audit_events
WHERE drink_id = ?
ORDER BY created_at, id
`)
	rows, err := r.db.QueryContext(ctx, q, drinkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			typ     string
			created int64
		)
		if err := rows.Scan(&e.ID, &typ, &e.ActorSubject, &e.IPAddress, &e.DrinkID, &e.Message, &e.Metadata, &created); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
