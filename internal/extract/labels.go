package extract

import (
	"strings"

	"golang.org/x/text/cases"
)

// HeaderLabel is a column header that marks the results table.
type HeaderLabel int

const (
	// LabelCompanyName is the company or LLP name column.
	LabelCompanyName HeaderLabel = iota

	// LabelIdentifier is the registry identifier column.
	LabelIdentifier
)

// headerLabels maps each label to the header texts the portal uses for it.
//
// Design decision: Recognized headers are an explicit table rather than
// string comparisons in the parser. Supporting a renamed column is one
// more entry here.
var headerLabels = map[HeaderLabel][]string{
	LabelCompanyName: {"Company/LLP name"},
	LabelIdentifier:  {"CIN/FCRN/LLPIN/FLLPIN"},
}

var folder = cases.Fold()

// String returns the canonical header text.
func (l HeaderLabel) String() string {
	if v := headerLabels[l]; len(v) > 0 {
		return v[0]
	}
	return "unknown"
}

// MatchHeader reports which label, if any, a header cell carries. Texts are
// compared after whitespace collapsing and Unicode case folding.
func MatchHeader(text string) (HeaderLabel, bool) {
	key := foldKey(text)
	for _, label := range []HeaderLabel{LabelCompanyName, LabelIdentifier} {
		for _, v := range headerLabels[label] {
			if foldKey(v) == key {
				return label, true
			}
		}
	}
	return 0, false
}

func foldKey(s string) string {
	return folder.String(strings.Join(strings.Fields(s), " "))
}
