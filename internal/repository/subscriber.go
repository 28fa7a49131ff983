package repository

import (
	"context"
	"fmt"

	"github.com/ninjainc/waitlist/internal/model"
)

const (
	// insertSubscriberQuery relies on the unique email constraint for
	// mutual exclusion between concurrent signups of the same address.
	insertSubscriberQuery = `
		INSERT INTO subscribers (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
	`

	listSubscribersQuery = `
		SELECT id, email, created_at
		FROM subscribers
		ORDER BY created_at DESC, id DESC
	`
)

// AddSubscriber inserts email if absent.
// inserted is false when the address was already stored; the existing
// row and its created_at are left as they were.
func (r *Repository) AddSubscriber(ctx context.Context, email string) (bool, error) {
	tag, err := r.pool.Exec(ctx, insertSubscriberQuery, email)
	if err != nil {
		return false, fmt.Errorf("failed to insert subscriber: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListSubscribers returns every subscriber, newest first.
// Equal created_at values are ordered by descending id.
func (r *Repository) ListSubscribers(ctx context.Context) ([]*model.Subscriber, error) {
	rows, err := r.pool.Query(ctx, listSubscribersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := make([]*model.Subscriber, 0)
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return subscribers, nil
}

// CountSubscribers returns the number of stored subscribers.
func (r *Repository) CountSubscribers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return n, nil
}
