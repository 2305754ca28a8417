package extract

import (
	"context"
	"strings"

	"github.com/marove/grabbit/app/content"
)

// gfycatAdapter resolves gfycat and redgifs links through their JSON APIs,
// preferring the webm variant. Ids that gfycat no longer knows are retried
// against redgifs, where much of the catalog migrated.
type gfycatAdapter struct {
	base
}

func newGfycatAdapter(ctx context.Context, env *Env, req Request) Adapter {
	return &gfycatAdapter{base: newBase(ctx, env, req)}
}

type gfyResponse struct {
	GfyItem struct {
		WebmURL string `json:"webmUrl"`
		MP4URL  string `json:"mp4Url"`
	} `json:"gfyItem"`
}

func (a *gfycatAdapter) Extract() Outcome {
	if content.IsMediaURL(a.req.Submission.URL) {
		id, ext := splitMediaURL(a.req.Submission.URL)
		a.makeContent(a.req.Submission.URL, "", id, 0, ext)
		return a.out
	}
	a.extractSingle()
	return a.out
}

func (a *gfycatAdapter) extractSingle() {
	// The path id may carry a trailing "-words-from-the-title" slug.
	id := strings.SplitN(urlBasename(a.req.Submission.URL), "-", 2)[0]

	var resp gfyResponse
	endpoint := a.env.GfycatAPIBase + "/" + id
	if strings.Contains(a.req.Submission.Domain(), "redgifs") {
		endpoint = a.env.RedgifsAPIBase + "/" + id
	}

	err := a.env.getJSON(a.ctx, endpoint, &resp)
	if err != nil && !strings.Contains(endpoint, a.env.RedgifsAPIBase) {
		// Fall back to redgifs for content migrated off gfycat.
		err = a.env.getJSON(a.ctx, a.env.RedgifsAPIBase+"/"+id, &resp)
	}
	if err != nil {
		a.fail(err)
		return
	}

	switch {
	case resp.GfyItem.WebmURL != "":
		a.makeContent(resp.GfyItem.WebmURL, "", id, 0, ".webm")
	case resp.GfyItem.MP4URL != "":
		a.makeContent(resp.GfyItem.MP4URL, "", id, 0, ".mp4")
	default:
		a.failedToLocate("no webm or mp4 variant for " + id)
	}
}
