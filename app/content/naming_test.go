package content

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestResolve_GroupingLayouts(t *testing.T) {
	cases := []struct {
		grouping Grouping
		wantDir  string
	}{
		{GroupNone, "/save"},
		{GroupByUser, filepath.Join("/save", "alice")},
		{GroupByBoard, filepath.Join("/save", "pics")},
		{GroupByBoardUser, filepath.Join("/save", "pics", "alice")},
		{GroupByUserBoard, filepath.Join("/save", "alice", "pics")},
	}

	for _, c := range cases {
		filePath, dir := Resolve("/save", c.grouping, "alice", "pics", "abc123", 0, ".jpg")
		if dir != c.wantDir {
			t.Errorf("grouping %q: expected dir %q, got %q", c.grouping, c.wantDir, dir)
		}
		want := filepath.Join(c.wantDir, "abc123.jpg")
		if filePath != want {
			t.Errorf("grouping %q: expected path %q, got %q", c.grouping, want, filePath)
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first, dir1 := Resolve("/save", GroupByUserBoard, "alice", "pics", "abc123", 2, ".png")
	second, dir2 := Resolve("/save", GroupByUserBoard, "alice", "pics", "abc123", 2, ".png")

	if first != second || dir1 != dir2 {
		t.Errorf("expected identical output for identical input, got %q/%q and %q/%q",
			first, dir1, second, dir2)
	}
}

func TestResolve_SequenceSuffix(t *testing.T) {
	zero, _ := Resolve("/save", GroupNone, "alice", "pics", "abc", 0, ".jpg")
	if filepath.Base(zero) != "abc.jpg" {
		t.Errorf("expected no suffix for index 0, got %q", filepath.Base(zero))
	}

	third, _ := Resolve("/save", GroupNone, "alice", "pics", "abc", 2, ".jpg")
	if filepath.Base(third) != "abc 2.jpg" {
		t.Errorf("expected ' 2' suffix for index 2, got %q", filepath.Base(third))
	}
}

func TestCleanFilename_ForbiddenCharacters(t *testing.T) {
	if got := CleanFilename(`a/b\c`); got != "a#b#c" {
		t.Errorf("expected a#b#c, got %q", got)
	}

	got := CleanFilename(`"*\/'.|?:<>`)
	if got != strings.Repeat("#", 11) {
		t.Errorf("expected all forbidden characters replaced, got %q", got)
	}
}

func TestCleanFilename_LengthLimit(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := CleanFilename(long)

	if len(got) != 173 {
		t.Errorf("expected truncated length 173, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-5:])
	}

	// A name one under the threshold is left alone.
	under := strings.Repeat("b", 175)
	if got := CleanFilename(under); got != under {
		t.Errorf("expected name under threshold unchanged, got length %d", len(got))
	}
}

func TestCleanFilename_MultibyteTruncation(t *testing.T) {
	long := strings.Repeat("ü", 200)
	got := CleanFilename(long)

	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8 after truncation, got %q", got)
	}
	if runes := []rune(got); len(runes) != 173 {
		t.Errorf("expected 173 characters after truncation, got %d", len(runes))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected ellipsis suffix")
	}
}

func TestParseGrouping_FallsBackToNone(t *testing.T) {
	if got := ParseGrouping("board/user"); got != GroupByBoardUser {
		t.Errorf("expected board/user grouping, got %q", got)
	}
	if got := ParseGrouping("unknown"); got != GroupNone {
		t.Errorf("expected fallback to none, got %q", got)
	}
	if got := ParseGrouping(""); got != GroupNone {
		t.Errorf("expected empty value to fall back to none, got %q", got)
	}
}

func TestIsMediaURL(t *testing.T) {
	if !IsMediaURL("https://example.com/files/pic.JPG") {
		t.Error("expected .JPG url to be recognized as media")
	}
	if IsMediaURL("https://example.com/gallery/abc") {
		t.Error("expected extension-less url to be rejected")
	}
}

func TestExtensionSets(t *testing.T) {
	if !IsImageExtension(".png") || IsImageExtension(".mp4") {
		t.Error("image extension set misclassified")
	}
	if !IsVideoExtension(".webm") || IsVideoExtension(".jpeg") {
		t.Error("video extension set misclassified")
	}
}
