package extract

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/cinfetch/internal/model"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<table id="layout"><tr><th>Menu</th></tr><tr><td>Home</td></tr></table>
<table class="results">
  <thead>
    <tr><th>S.No</th><th> CIN/FCRN/LLPIN/FLLPIN </th><th>Company/LLP name</th><th>ROC</th><th>Status</th></tr>
  </thead>
  <tbody>
    <tr><td>1</td><td><u class="company-id">U63090MH1971PTC015089</u></td><td>ACME
        PRIVATE LIMITED</td></tr>
    <tr></tr>
    <tr><th>2</th><td>L99999GJ1987PLC009768</td><td>BETA LTD</td><td>RoC-Ahmedabad</td><td>Active</td><td>extra</td></tr>
  </tbody>
</table>
</body></html>`

// TestParseResultsTable tests selection and extraction of the results table.
func TestParseResultsTable(t *testing.T) {
	t.Parallel()

	t.Run("selects the table with a recognized header", func(t *testing.T) {
		t.Parallel()
		got, err := ParseResultsTableString(resultsPage)
		if err != nil {
			t.Fatalf("ParseResultsTable() error = %v", err)
		}
		want := model.Table{
			Header: []string{"S.No", "CIN/FCRN/LLPIN/FLLPIN", "Company/LLP name", "ROC", "Status"},
			Rows: [][]string{
				{"1", "U63090MH1971PTC015089", "ACME PRIVATE LIMITED", "", ""},
				{"2", "L99999GJ1987PLC009768", "BETA LTD", "RoC-Ahmedabad", "Active"},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ParseResultsTable() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("header only table has no rows", func(t *testing.T) {
		t.Parallel()
		got, err := ParseResultsTableString(`<table><tr><th>Company/LLP name</th></tr></table>`)
		if err != nil {
			t.Fatalf("ParseResultsTable() error = %v", err)
		}
		if !got.Empty() || len(got.Header) != 1 {
			t.Errorf("unexpected table %+v", got)
		}
	})

	t.Run("nested table does not leak cells", func(t *testing.T) {
		t.Parallel()
		page := `<table><tr><th>Company/LLP name</th><th>Notes</th></tr>
			<tr><td>ACME</td><td><table><tr><td>inner</td></tr></table></td></tr></table>`
		got, err := ParseResultsTableString(page)
		if err != nil {
			t.Fatalf("ParseResultsTable() error = %v", err)
		}
		want := [][]string{{"ACME", "inner"}}
		if diff := cmp.Diff(want, got.Rows); diff != "" {
			t.Errorf("rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("inline markup joins words", func(t *testing.T) {
		t.Parallel()
		page := `<table>
			<tr><th>CIN</th><th>Company/<span>LLP</span> name</th></tr>
			<tr><td>U1</td><td>ACME<b>CORP</b> Pvt</td></tr>
			<tr><td>U2</td><td>first line<br>second<div>block</div></td></tr></table>`
		got, err := ParseResultsTableString(page)
		if err != nil {
			t.Fatalf("ParseResultsTable() error = %v", err)
		}
		want := model.Table{
			Header: []string{"CIN", "Company/LLP name"},
			Rows: [][]string{
				{"U1", "ACMECORP Pvt"},
				{"U2", "first line second block"},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ParseResultsTable() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no recognized table", func(t *testing.T) {
		t.Parallel()
		_, err := ParseResultsTableString(`<table><tr><th>Name</th></tr><tr><td>x</td></tr></table>`)
		if !errors.Is(err, ErrNoResultsTable) {
			t.Errorf("expected ErrNoResultsTable, got %v", err)
		}
	})
}

// TestMatchHeader tests header label lookup.
func TestMatchHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		want   HeaderLabel
		wantOK bool
	}{
		{text: "Company/LLP name", want: LabelCompanyName, wantOK: true},
		{text: "  company/llp   NAME ", want: LabelCompanyName, wantOK: true},
		{text: "CIN/FCRN/LLPIN/FLLPIN", want: LabelIdentifier, wantOK: true},
		{text: "cin/fcrn/llpin/fllpin", want: LabelIdentifier, wantOK: true},
		{text: "Company name", wantOK: false},
		{text: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			got, ok := MatchHeader(tt.text)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("MatchHeader(%q) = %v, %v", tt.text, got, ok)
			}
		})
	}
	if LabelIdentifier.String() != "CIN/FCRN/LLPIN/FLLPIN" {
		t.Errorf("unexpected String() %q", LabelIdentifier.String())
	}
}
