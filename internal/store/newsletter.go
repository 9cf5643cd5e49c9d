package store

import (
	"context"
	"database/sql"
	"time"
)

type NewsletterRepository struct {
	db *sql.DB
}

func NewNewsletterRepository(db *sql.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Subscribe records email. Repeat subscriptions are ignored; the result
// reports whether the address was new.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	const query = `
		INSERT INTO newsletter_subscribers (email, subscribed_at)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, email, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
