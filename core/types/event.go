package types

// Event represents a structured state change emitted by a native module. The
// attributes carry string-encoded fields so downstream observers do not need
// module-specific decoding.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
