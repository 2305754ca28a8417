package database

// EntityRepository handles persistence of tracked entities and their
// watermark state.
type EntityRepository interface {
	UpsertEntity(e Entity) error
	GetEntity(name string) (*Entity, error)
	GetEntityCount() (int, error)
	UpdateDateLimit(name string, dateLimit int64, customDateLimit *int64) error
	DeleteEntity(name string) error
}

// ContentRepository handles the download history (the dedup source of truth
// across passes) and the resume snapshots for unfinished items.
type ContentRepository interface {
	MarkDownloaded(entityName, url string) error
	GetDownloadedURLs(entityName string) ([]string, error)
	GetDownloadedCount() (int, error)

	SaveUnfinished(items []UnfinishedItem) error
	LoadUnfinished(entityName string) ([]UnfinishedItem, error)
	ClearUnfinished(entityName string) error
}
