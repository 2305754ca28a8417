package database

import (
	"database/sql"
	"fmt"
)

var _ EntityRepository = (*entityRepository)(nil)

type entityRepository struct {
	db *DB
}

func NewEntityRepository(db *DB) EntityRepository {
	return &entityRepository{db: db}
}

// UpsertEntity registers an entity or refreshes its settings from the
// watch-list. The persisted watermark state is left untouched on update.
func (r *entityRepository) UpsertEntity(e Entity) error {
	_, err := r.db.Exec(`
		INSERT INTO entities (name, kind, save_root, post_limit, avoid_duplicates,
			download_images, download_videos, grouping, user_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			kind = excluded.kind,
			save_root = excluded.save_root,
			post_limit = excluded.post_limit,
			avoid_duplicates = excluded.avoid_duplicates,
			download_images = excluded.download_images,
			download_videos = excluded.download_videos,
			grouping = excluded.grouping,
			user_added = excluded.user_added,
			updated_at = CURRENT_TIMESTAMP
	`, e.Name, e.Kind, e.SaveRoot, e.PostLimit, e.AvoidDuplicates,
		e.DownloadImages, e.DownloadVideos, e.Grouping, e.UserAdded)

	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}
	return nil
}

func (r *entityRepository) GetEntity(name string) (*Entity, error) {
	var e Entity
	var customDateLimit sql.NullInt64

	err := r.db.QueryRow(`
		SELECT name, kind, save_root, post_limit, avoid_duplicates,
			download_images, download_videos, grouping, user_added,
			date_limit, custom_date_limit, created_at, updated_at
		FROM entities WHERE name = ?
	`, name).Scan(&e.Name, &e.Kind, &e.SaveRoot, &e.PostLimit, &e.AvoidDuplicates,
		&e.DownloadImages, &e.DownloadVideos, &e.Grouping, &e.UserAdded,
		&e.DateLimit, &customDateLimit, &e.CreatedAt, &e.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	if customDateLimit.Valid {
		e.CustomDateLimit = &customDateLimit.Int64
	}
	return &e, nil
}

func (r *entityRepository) GetEntityCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM entities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

// UpdateDateLimit persists the watermark state after a pass.
func (r *entityRepository) UpdateDateLimit(name string, dateLimit int64, customDateLimit *int64) error {
	var custom sql.NullInt64
	if customDateLimit != nil {
		custom = sql.NullInt64{Int64: *customDateLimit, Valid: true}
	}

	_, err := r.db.Exec(`
		UPDATE entities
		SET date_limit = ?, custom_date_limit = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, dateLimit, custom, name)

	if err != nil {
		return fmt.Errorf("failed to update date limit: %w", err)
	}
	return nil
}

// DeleteEntity removes an entity; its download history and resume snapshots
// go with it via the foreign keys.
func (r *entityRepository) DeleteEntity(name string) error {
	_, err := r.db.Exec(`DELETE FROM entities WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}
