package entity

import (
	"github.com/marove/grabbit/app/content"
)

// Kind discriminates the two tracked entity flavors. A user entity pulls the
// author's submissions; a board entity pulls a subreddit's new listing.
type Kind string

const (
	KindUser  Kind = "user"
	KindBoard Kind = "board"
)

// Config is one watch-list entry loaded from the entities directory.
type Config struct {
	Name     string         // derived from filename (without .yml extension)
	Kind     Kind           `yaml:"kind"`
	SaveRoot string         `yaml:"save_root"` // optional, defaults to the global save root
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool   `yaml:"enabled"`
	PostLimit       int    `yaml:"post_limit"`
	AvoidDuplicates bool   `yaml:"avoid_duplicates"`
	DownloadImages  bool   `yaml:"download_images"`
	DownloadVideos  bool   `yaml:"download_videos"`
	Grouping        string `yaml:"grouping"`
	UserAdded       bool   `yaml:"user_added"`
}

// SavedItem is the reconstruction tuple persisted for an undownloaded content
// item so a later pass can resume it.
type SavedItem struct {
	Text         string
	Owner        string
	PostTitle    string
	Board        string
	SubmissionID string
	SeqIndex     int
	Extension    string
	SaveRoot     string
	Grouping     content.Grouping
	CreatedUTC   int64 // 0 when the original creation time is unknown
}
