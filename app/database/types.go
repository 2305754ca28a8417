package database

import (
	"time"
)

// Entity is one tracked entity's persisted record: its settings plus the
// watermark state that survives between download passes.
type Entity struct {
	Name            string
	Kind            string
	SaveRoot        string
	PostLimit       int
	AvoidDuplicates bool
	DownloadImages  bool
	DownloadVideos  bool
	Grouping        string
	UserAdded       bool
	DateLimit       int64
	CustomDateLimit *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UnfinishedItem is the persisted reconstruction tuple for a content item
// that never finished downloading.
type UnfinishedItem struct {
	EntityName   string
	URL          string
	Text         string
	PostTitle    string
	Board        string
	SubmissionID string
	SeqIndex     int
	Extension    string
	SaveRoot     string
	Grouping     string
	CreatedUTC   int64
}
