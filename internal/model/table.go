package model

// Table is a parsed results table. Every row has exactly len(Header) cells.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewTable builds a Table and normalizes every row to the header width.
func NewTable(header []string, rows [][]string) Table {
	t := Table{
		Header: append([]string(nil), header...),
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, NormalizeRow(r, len(header)))
	}
	return t
}

// NormalizeRow returns a copy of row padded on the right with empty strings,
// or truncated on the right, to width cells.
func NormalizeRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}
