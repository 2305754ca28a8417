package content

import (
	"net/url"
	"strings"
	"time"
)

// Submission is one post pulled from the platform listing. The pipeline only
// consumes these; the reddit client (or a resumed pass) produces them.
type Submission struct {
	ID        string
	Title     string
	Author    string
	Board     string
	URL       string
	SelfPost  bool
	SelfText  string
	CreatedAt *time.Time
}

// Domain returns the host part of the submission URL, or "" when the URL is
// unset or unparseable.
func (s Submission) Domain() string {
	if s.URL == "" {
		return ""
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Item is one concrete downloadable unit derived from a submission: either a
// remote file (URL set), a literal text body (Text set), or both. The file
// path is computed once at construction and never mutated.
type Item struct {
	URL          string
	Text         string
	Owner        string // entity name the item was extracted for
	PostTitle    string
	Board        string
	SubmissionID string
	SeqIndex     int    // 0-based position inside an album/gallery
	Extension    string // includes the leading dot
	FilePath     string
	Dir          string // must exist before the file is written
	Grouping     Grouping
	CreatedAt    *time.Time
	Downloaded   bool
}

// NewItem resolves the on-disk location for the given parts and returns the
// assembled item.
func NewItem(rawURL, text, owner, postTitle, board, submissionID string, seqIndex int,
	extension, saveRoot string, grouping Grouping, createdAt *time.Time) *Item {

	filePath, dir := Resolve(saveRoot, grouping, owner, board, submissionID, seqIndex, extension)

	return &Item{
		URL:          rawURL,
		Text:         text,
		Owner:        owner,
		PostTitle:    postTitle,
		Board:        board,
		SubmissionID: submissionID,
		SeqIndex:     seqIndex,
		Extension:    extension,
		FilePath:     filePath,
		Dir:          dir,
		Grouping:     grouping,
		CreatedAt:    createdAt,
	}
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

var videoExtensions = []string{".mp4", ".webm", ".wmv", ".gifv", ".avi", ".mpg"}

// mediaExtensions is the closed set a direct link must end in to be considered
// downloadable without resolving through a host API.
var mediaExtensions = append(append([]string{}, imageExtensions...), videoExtensions...)

func IsImageExtension(ext string) bool {
	return containsExtension(imageExtensions, ext)
}

func IsVideoExtension(ext string) bool {
	return containsExtension(videoExtensions, ext)
}

// IsMediaURL reports whether the URL path ends in a known media extension.
func IsMediaURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range mediaExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func containsExtension(set []string, ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range set {
		if e == ext {
			return true
		}
	}
	return false
}
