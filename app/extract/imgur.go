package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/marove/grabbit/app/content"
)

// imgurAdapter resolves imgur links through the v3 JSON API: albums and
// galleries enumerate every member image in order, single-image pages resolve
// to the direct link, and animated images prefer the mp4 variant.
type imgurAdapter struct {
	base
}

func newImgurAdapter(ctx context.Context, env *Env, req Request) Adapter {
	return &imgurAdapter{base: newBase(ctx, env, req)}
}

type imgurImage struct {
	Link     string `json:"link"`
	MP4      string `json:"mp4"`
	Animated bool   `json:"animated"`
}

type imgurImageResponse struct {
	Data imgurImage `json:"data"`
}

type imgurAlbumResponse struct {
	Data []imgurImage `json:"data"`
}

func (a *imgurAdapter) Extract() Outcome {
	url := a.req.Submission.URL
	switch {
	// Album is tested first: album URLs are frequently formatted badly enough
	// to also look like something else.
	case strings.Contains(url, "/a/"):
		a.extractAlbum()
	case content.IsMediaURL(url):
		a.extractDirectLink()
	case strings.Contains(url, "/gallery/"):
		a.extractAlbum()
	default:
		a.extractSingle(urlBasename(url))
	}
	return a.out
}

func (a *imgurAdapter) extractAlbum() {
	albumID := urlBasename(a.req.Submission.URL)

	var resp imgurAlbumResponse
	endpoint := fmt.Sprintf("%s/album/%s/images", a.env.ImgurAPIBase, albumID)
	if err := a.env.getJSON(a.ctx, endpoint, &resp); err != nil {
		a.fail(err)
		return
	}
	if len(resp.Data) == 0 {
		a.failedToLocate("album contains no images")
		return
	}

	for i, img := range resp.Data {
		url, ext := resolveImgurVariant(img)
		if url == "" {
			a.failedToLocate(fmt.Sprintf("album member %d has no link", i))
			continue
		}
		a.makeContent(url, "", albumID, i, ext)
	}
}

func (a *imgurAdapter) extractSingle(imageID string) {
	var resp imgurImageResponse
	endpoint := fmt.Sprintf("%s/image/%s", a.env.ImgurAPIBase, imageID)
	if err := a.env.getJSON(a.ctx, endpoint, &resp); err != nil {
		a.fail(err)
		return
	}

	url, ext := resolveImgurVariant(resp.Data)
	if url == "" {
		a.failedToLocate("image has no link")
		return
	}
	a.makeContent(url, "", imageID, 0, ext)
}

func (a *imgurAdapter) extractDirectLink() {
	url := fixImgurMislink(a.req.Submission.URL)
	id, ext := splitMediaURL(url)

	// Animated direct links serve an HTML wrapper page, not the file; resolve
	// them through the API so the mp4 variant is downloaded instead.
	if ext == ".gif" || ext == ".gifv" {
		a.extractSingle(id)
		return
	}
	a.makeContent(url, "", id, 0, ext)
}

// resolveImgurVariant picks the download URL and extension for one image,
// preferring the mp4 variant for animated content.
func resolveImgurVariant(img imgurImage) (url, ext string) {
	if img.Animated && img.MP4 != "" {
		return img.MP4, ".mp4"
	}
	if img.Link == "" {
		return "", ""
	}
	_, ext = splitMediaURL(img.Link)
	return img.Link, ext
}

// fixImgurMislink rewrites direct links that are missing the "i." host
// prefix; without it the link serves an HTML page instead of the file.
func fixImgurMislink(url string) string {
	if strings.Contains(url, "i.imgur") {
		return url
	}
	return "https://i.imgur.com/" + urlBasename(url)
}
