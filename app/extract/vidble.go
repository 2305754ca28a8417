package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/marove/grabbit/app/content"
)

// vidbleAdapter scrapes vidble pages. The site has no public API; album and
// show pages embed the member images as thumbnail links that map to the
// full-size file by dropping the "_med" size marker.
type vidbleAdapter struct {
	base
}

func newVidbleAdapter(ctx context.Context, env *Env, req Request) Adapter {
	return &vidbleAdapter{base: newBase(ctx, env, req)}
}

func (a *vidbleAdapter) Extract() Outcome {
	url := a.req.Submission.URL
	switch {
	case content.IsMediaURL(url):
		id, ext := splitMediaURL(url)
		a.makeContent(url, "", id, 0, ext)
	case strings.Contains(url, "/album/"):
		a.extractAlbum()
	default:
		a.extractSingle()
	}
	return a.out
}

func (a *vidbleAdapter) extractAlbum() {
	albumID := urlBasename(a.req.Submission.URL)

	images, err := a.scrapeImages()
	if err != nil {
		a.fail(err)
		return
	}
	if len(images) == 0 {
		a.failedToLocate("album page contains no images")
		return
	}

	for i, imgURL := range images {
		_, ext := splitMediaURL(imgURL)
		a.makeContent(imgURL, "", albumID, i, ext)
	}
}

func (a *vidbleAdapter) extractSingle() {
	images, err := a.scrapeImages()
	if err != nil {
		a.fail(err)
		return
	}
	if len(images) == 0 {
		a.failedToLocate("page contains no image")
		return
	}

	id, ext := splitMediaURL(images[0])
	a.makeContent(images[0], "", id, 0, ext)
}

// scrapeImages pulls the member image URLs off the page in document order.
func (a *vidbleAdapter) scrapeImages() ([]string, error) {
	body, err := a.env.getHTML(a.ctx, a.req.Submission.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}

	var images []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.Contains(src, "logo") {
			return
		}
		images = append(images, normalizeVidbleURL(src))
	})
	return images, nil
}

// normalizeVidbleURL makes the thumbnail src absolute and swaps the sized
// variant for the original file.
func normalizeVidbleURL(src string) string {
	src = strings.Replace(src, "_med", "", 1)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if strings.HasPrefix(src, "/") {
		return "https://www.vidble.com" + src
	}
	return src
}
