package content

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Grouping selects the directory layout under an entity's save root.
type Grouping string

const (
	GroupNone          Grouping = "none"
	GroupByUser        Grouping = "user"
	GroupByBoard       Grouping = "board"
	GroupByBoardUser   Grouping = "board/user"
	GroupByUserBoard   Grouping = "user/board"
)

// ParseGrouping maps a configuration string to a Grouping. Unknown or empty
// values fall back to GroupNone.
func ParseGrouping(s string) Grouping {
	switch Grouping(strings.ToLower(strings.TrimSpace(s))) {
	case GroupByUser, GroupByBoard, GroupByBoardUser, GroupByUserBoard:
		return Grouping(strings.ToLower(strings.TrimSpace(s)))
	default:
		return GroupNone
	}
}

// Resolve maps the naming inputs to the absolute file path and the containing
// directory that must exist before the write. It is pure: the same inputs
// always produce the same paths. Two distinct raw ids that sanitize
// identically will collide on the same file name; that matches the historical
// on-disk naming and is left as is.
func Resolve(saveRoot string, grouping Grouping, userName, boardName, submissionID string,
	seqIndex int, extension string) (filePath, dir string) {

	switch grouping {
	case GroupByUser:
		dir = filepath.Join(saveRoot, userName)
	case GroupByBoard:
		dir = filepath.Join(saveRoot, boardName)
	case GroupByBoardUser:
		dir = filepath.Join(saveRoot, boardName, userName)
	case GroupByUserBoard:
		dir = filepath.Join(saveRoot, userName, boardName)
	default:
		dir = saveRoot
	}

	name := CleanFilename(submissionID) + seqSuffix(seqIndex) + extension
	return filepath.Join(dir, name), dir
}

// seqSuffix renders the 0-based sequence index the way files have always been
// named: nothing for the first item, " N" for the rest. An album's first
// member therefore shares its name with a single-item submission of the same
// id.
func seqSuffix(seqIndex int) string {
	if seqIndex <= 0 {
		return ""
	}
	return fmt.Sprintf(" %d", seqIndex)
}

const forbiddenFilenameChars = `"*\/'.|?:<>`

// CleanFilename replaces forbidden characters with '#' and bounds the result
// length. Names of 176 characters or more are cut to 170 plus an ellipsis
// marker; the threshold is lower than any real filesystem limit but matches
// what conservative path handling has required in practice.
func CleanFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(forbiddenFilenameChars, r) {
			b.WriteByte('#')
		} else {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if runes := []rune(cleaned); len(runes) >= 176 {
		cleaned = string(runes[:170]) + "..."
	}
	return cleaned
}
