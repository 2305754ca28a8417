package extract

import (
	"github.com/marove/grabbit/app/content"
)

// FailureKind categorizes extraction failures so the dispatcher and UI can
// tell "could not reach host" apart from "host reachable, content not found".
type FailureKind string

const (
	// FailureUnsupportedDomain is permanent: no adapter matches and the URL is
	// not a direct media link.
	FailureUnsupportedDomain FailureKind = "unsupported_domain"
	// FailureFailedToLocate is permanent for the item: the host was reachable
	// but the concrete media could not be resolved.
	FailureFailedToLocate FailureKind = "failed_to_locate"
	// FailureConnectionError is a transport-level failure to reach the host.
	// The submission is resubmitted on the next pass.
	FailureConnectionError FailureKind = "connection_error"
)

// Failure is one human-readable extraction failure.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Result is one extracted entry: either a resolved content item or a failure
// marker, never both. The ordering of results matches the order the adapter
// resolved them in.
type Result struct {
	Item    *content.Item
	Failure *Failure
}

// Outcome aggregates everything an adapter produced for one submission.
type Outcome struct {
	Results  []Result
	Resubmit []content.Submission // transient failures to retry next pass
}

func (o *Outcome) addItem(item *content.Item) {
	o.Results = append(o.Results, Result{Item: item})
}

func (o *Outcome) addFailure(kind FailureKind, message string) {
	o.Results = append(o.Results, Result{Failure: &Failure{Kind: kind, Message: message}})
}

// Request carries the submission plus the entity-level naming configuration an
// adapter needs to construct content items.
type Request struct {
	Submission content.Submission
	Owner      string // entity name the extraction runs for
	SaveRoot   string
	Grouping   content.Grouping
}

// Adapter resolves a submission into zero or more downloadable items. An
// adapter never panics past its boundary; every failure is converted into a
// Result failure marker.
type Adapter interface {
	Extract() Outcome
}
