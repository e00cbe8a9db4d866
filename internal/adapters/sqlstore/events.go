package sqlstore

import (
	"context"
	"fmt"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// eventRepo implements the append-only mutation log
type eventRepo struct {
	tx *tx
}

func (r *eventRepo) Append(ctx context.Context, ev ports.Event) error {
	_, err := r.tx.insert(ctx, "id", `INSERT INTO events (family, ref_id, kind, payload, created_time) VALUES (?, ?, ?, ?, ?)`,
		string(ev.Family), int64(ev.RefID), ev.Kind, ev.Payload, toNanos(ev.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append %s event for %s %s: %w", ev.Kind, ev.Family, ev.RefID, err)
	}
	return nil
}

func (r *eventRepo) FindForEntity(ctx context.Context, family domain.Family, id domain.EntityID) ([]ports.Event, error) {
	rows, err := r.tx.query(ctx, `SELECT family, ref_id, kind, payload, created_time FROM events
		WHERE family = ? AND ref_id = ? ORDER BY id`, string(family), int64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []ports.Event
	for rows.Next() {
		var (
			ev        ports.Event
			fam       string
			ref, when int64
		)
		if err := rows.Scan(&fam, &ref, &ev.Kind, &ev.Payload, &when); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Family = domain.Family(fam)
		ev.RefID = domain.EntityID(ref)
		ev.Timestamp = fromNanos(when)
		events = append(events, ev)
	}
	return events, rows.Err()
}
