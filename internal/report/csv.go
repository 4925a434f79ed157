package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/cinfetch/internal/model"
)

// TableWriter stores results tables as <identifier>_basic.csv files.
// It implements workflow.TableSink.
//
// Design decision: Files are written to a temporary name and renamed into
// place, so a retried attempt replaces the previous file whole and a
// reader never sees half a table.
type TableWriter struct {
	dir string
}

// NewTableWriter creates a TableWriter writing into dir.
func NewTableWriter(dir string) *TableWriter {
	return &TableWriter{dir: dir}
}

// Path returns the CSV path for identifier.
func (w *TableWriter) Path(identifier string) string {
	return filepath.Join(w.dir, model.FileStem(identifier)+"_basic.csv")
}

// WriteTable writes the header and rows of table.
func (w *TableWriter) WriteTable(identifier string, table model.Table) error {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".basic-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(table.Header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.Path(identifier)); err != nil {
		return fmt.Errorf("failed to store table: %w", err)
	}
	return nil
}
