package dataset

import (
	"fmt"
	"strings"

	"credit-risk-lab/internal/domain"
)

// maxIssues caps how many problems a SchemaError collects before decoding stops.
const maxIssues = 50

// SchemaIssue is one problem found while decoding a file.
// Row 0 refers to the header; data rows start at 1.
type SchemaIssue struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (i SchemaIssue) String() string {
	if i.Column == "" {
		if i.Row == 0 {
			return i.Reason
		}
		return fmt.Sprintf("row %d: %s", i.Row, i.Reason)
	}
	if i.Row == 0 {
		return fmt.Sprintf("column %q: %s", i.Column, i.Reason)
	}
	return fmt.Sprintf("row %d column %q value %q: %s", i.Row, i.Column, i.Value, i.Reason)
}

// SchemaError lists every offending column of a file that does not match the expected layout.
// It unwraps to domain.ErrSchemaMismatch.
type SchemaError struct {
	Source string
	Issues []SchemaIssue
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s: %s", domain.ErrSchemaMismatch, e.Source, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error {
	return domain.ErrSchemaMismatch
}

// MissingColumns returns the header-level issues' column names.
func (e *SchemaError) MissingColumns() []string {
	var cols []string
	for _, issue := range e.Issues {
		if issue.Row == 0 && issue.Column != "" {
			cols = append(cols, issue.Column)
		}
	}
	return cols
}

type issueList struct {
	issues []SchemaIssue
}

func (l *issueList) add(row int, column, value, reason string) {
	if len(l.issues) < maxIssues {
		l.issues = append(l.issues, SchemaIssue{Row: row, Column: column, Value: value, Reason: reason})
	}
}

func (l *issueList) full() bool {
	return len(l.issues) >= maxIssues
}

func (l *issueList) err(source string) error {
	if len(l.issues) == 0 {
		return nil
	}
	return &SchemaError{Source: source, Issues: l.issues}
}
