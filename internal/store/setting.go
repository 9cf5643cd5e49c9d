package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jobportal/apiserver/types"
)

// SettingRepository handles persistence for site settings.
type SettingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func scanSetting(row rowScanner) (types.Setting, error) {
	var (
		s         types.Setting
		updatedBy sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &s.Type, &s.Category, &s.Description, &s.UpdatedAt, &updatedBy); err != nil {
		return types.Setting{}, err
	}
	if updatedBy.Valid {
		id := int(updatedBy.Int64)
		s.UpdatedBy = &id
	}
	return s, nil
}

func (r *SettingRepository) List(ctx context.Context) ([]types.Setting, error) {
	const query = `
		SELECT id, key, value, type, category, description, updated_at, updated_by
		FROM settings
		ORDER BY category, key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]types.Setting, 0)
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *SettingRepository) Get(ctx context.Context, key string) (types.Setting, error) {
	const query = `
		SELECT id, key, value, type, category, description, updated_at, updated_by
		FROM settings
		WHERE key = $1`
	s, err := scanSetting(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Setting{}, ErrNotFound
		}
		return types.Setting{}, err
	}
	return s, nil
}

// UpdateValue sets the value of an existing setting and records who changed it.
func (r *SettingRepository) UpdateValue(ctx context.Context, key, value string, updatedBy int) error {
	const query = `UPDATE settings SET value = $1, updated_at = $2, updated_by = $3 WHERE key = $4`
	result, err := r.db.ExecContext(ctx, query, value, time.Now(), updatedBy, key)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertIfMissing inserts s unless a setting with the same key exists.
// It reports whether a row was inserted.
func (r *SettingRepository) InsertIfMissing(ctx context.Context, s types.Setting) (bool, error) {
	const query = `
		INSERT INTO settings (key, value, type, category, description, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.Type, s.Category, s.Description, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
