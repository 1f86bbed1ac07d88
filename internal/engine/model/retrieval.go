package model

// Source is a structured citation for one retrieved passage.
type Source struct {
	Title          string  `json:"title"`
	Score          float64 `json:"score"`
	URL            string  `json:"url"`
	ContentPreview string  `json:"content_preview"`
}

// RetrievalResult is the transient, per-query outcome of a knowledge base
// search. Never persisted; recomputed every turn.
type RetrievalResult struct {
	// Context is the assembled text from passages at or above the
	// similarity threshold, ordered by descending score.
	Context string
	Sources []Source
	// Sufficient reports whether Context passed the minimum-evidence bar
	// used to gate the web-fallback branch.
	Sufficient bool
	// FromWeb marks results produced by the web-fallback searcher rather
	// than the tenant knowledge base.
	FromWeb bool
}
