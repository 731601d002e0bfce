package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"credit-risk-lab/internal/domain"
)

// openInput opens path, mapping a missing file to domain.ErrMissingResource.
func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingResource, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// writeAtomic writes through a temp file in the target directory and renames it into place.
// On any failure the temp file is removed and the target is left untouched.
func writeAtomic(path string, encode func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = encode(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// headerIndex maps column names to positions and records required columns that are absent.
func headerIndex(header []string, required []string, issues *issueList) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := idx[name]; dup {
			issues.add(0, name, "", "duplicate column")
			continue
		}
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			issues.add(0, name, "", "missing column")
		}
	}
	return idx
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	return cr
}

// rowReader pulls typed values from one record, recording parse failures.
type rowReader struct {
	row    int
	record []string
	idx    map[string]int
	issues *issueList
}

func (r *rowReader) raw(col string) string {
	return r.record[r.idx[col]]
}

func (r *rowReader) int64(col string) int64 {
	v := r.raw(col)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.issues.add(r.row, col, v, "not an integer")
	}
	return n
}

func (r *rowReader) int(col string) int {
	return int(r.int64(col))
}

func (r *rowReader) float(col string) float64 {
	v := r.raw(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.issues.add(r.row, col, v, "not a number")
	}
	return f
}

func (r *rowReader) bool(col string) bool {
	v := r.raw(col)
	switch v {
	case "1", "true", "True", "TRUE":
		return true
	case "0", "false", "False", "FALSE":
		return false
	}
	r.issues.add(r.row, col, v, "not a 0/1 flag")
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
