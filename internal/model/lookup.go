package model

// LookupRecord is the workflow state of one identifier during one attempt.
// A new record is built for every attempt; only Identifier and Attempt carry
// over from the previous one.
type LookupRecord struct {
	// Identifier is the opaque registry key being looked up.
	Identifier string `json:"identifier"`

	// Stage is the last stage reached.
	Stage Stage `json:"stage"`

	// Attempt is the 1-based attempt number.
	Attempt int `json:"attempt"`
}

// NewLookupRecord returns a record at StageInit.
func NewLookupRecord(identifier string, attempt int) *LookupRecord {
	return &LookupRecord{Identifier: identifier, Stage: StageInit, Attempt: attempt}
}

// FileStem returns identifier with every byte outside [A-Za-z0-9._-]
// replaced by '_', for use in file names. An empty identifier yields "_".
func FileStem(identifier string) string {
	if identifier == "" {
		return "_"
	}
	b := []byte(identifier)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			b[i] = '_'
		}
	}
	if s := string(b); s != "." && s != ".." {
		return s
	}
	return "_"
}
