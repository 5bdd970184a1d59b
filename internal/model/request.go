package model

// Request describes one logical remote call. Treat it as immutable once built.
type Request struct {
	URL     string
	Method  string
	Body    []byte            // JSON, sent for non-GET methods
	Header  map[string]string // merged over the standard headers
	Retries int               // attempt budget, 0 means the client default
	// SkipAuth suppresses the bearer header.
	SkipAuth bool
}
