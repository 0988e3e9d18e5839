package httpsearch

// Job states reported by GET /status/{id}.
const (
	StatusQueued   = "QUEUED"
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusError    = "ERROR"
	StatusFailure  = "FAILURE"
	StatusNotFound = "NOT_FOUND"
)

// WireHit is one hit in the JSON result document.
type WireHit struct {
	Accession   string `json:"hit_acc"`
	ID          string `json:"hit_id,omitempty"`
	Description string `json:"hit_desc"`
}

// WireResult is the body of GET /result/{id}/json.
type WireResult struct {
	Hits []WireHit `json:"hits"`
}
