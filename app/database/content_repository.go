package database

import (
	"fmt"
)

var _ ContentRepository = (*contentRepository)(nil)

type contentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) MarkDownloaded(entityName, url string) error {
	_, err := r.db.Exec(`
		INSERT INTO downloaded_urls (entity_name, url)
		VALUES (?, ?)
		ON CONFLICT (entity_name, url) DO NOTHING
	`, entityName, url)

	if err != nil {
		return fmt.Errorf("failed to mark url downloaded: %w", err)
	}
	return nil
}

func (r *contentRepository) GetDownloadedURLs(entityName string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT url FROM downloaded_urls WHERE entity_name = ?
	`, entityName)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloaded urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (r *contentRepository) GetDownloadedCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM downloaded_urls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count downloaded urls: %w", err)
	}
	return count, nil
}

// SaveUnfinished snapshots undownloaded items for resume on a later pass.
func (r *contentRepository) SaveUnfinished(items []UnfinishedItem) error {
	for _, item := range items {
		_, err := r.db.Exec(`
			INSERT INTO unfinished_items (entity_name, url, text, post_title, board,
				submission_id, seq_index, extension, save_root, grouping, created_utc)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (entity_name, url) DO UPDATE SET
				text = excluded.text,
				post_title = excluded.post_title,
				board = excluded.board,
				submission_id = excluded.submission_id,
				seq_index = excluded.seq_index,
				extension = excluded.extension,
				save_root = excluded.save_root,
				grouping = excluded.grouping,
				created_utc = excluded.created_utc
		`, item.EntityName, item.URL, item.Text, item.PostTitle, item.Board,
			item.SubmissionID, item.SeqIndex, item.Extension, item.SaveRoot,
			item.Grouping, item.CreatedUTC)

		if err != nil {
			return fmt.Errorf("failed to save unfinished item: %w", err)
		}
	}
	return nil
}

func (r *contentRepository) LoadUnfinished(entityName string) ([]UnfinishedItem, error) {
	rows, err := r.db.Query(`
		SELECT entity_name, url, text, post_title, board, submission_id,
			seq_index, extension, save_root, grouping, created_utc
		FROM unfinished_items WHERE entity_name = ?
	`, entityName)
	if err != nil {
		return nil, fmt.Errorf("failed to query unfinished items: %w", err)
	}
	defer rows.Close()

	var items []UnfinishedItem
	for rows.Next() {
		var item UnfinishedItem
		if err := rows.Scan(&item.EntityName, &item.URL, &item.Text, &item.PostTitle,
			&item.Board, &item.SubmissionID, &item.SeqIndex, &item.Extension,
			&item.SaveRoot, &item.Grouping, &item.CreatedUTC); err != nil {
			return nil, fmt.Errorf("failed to scan unfinished item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *contentRepository) ClearUnfinished(entityName string) error {
	_, err := r.db.Exec(`DELETE FROM unfinished_items WHERE entity_name = ?`, entityName)
	if err != nil {
		return fmt.Errorf("failed to clear unfinished items: %w", err)
	}
	return nil
}
