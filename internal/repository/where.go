package repository

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates positional SQL predicates.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhere() *whereBuilder {
	return &whereBuilder{clauses: []string{"1=1"}}
}

// add appends a predicate; format must contain a single %s for the placeholder.
func (w *whereBuilder) add(format string, val any) {
	w.args = append(w.args, val)
	w.clauses = append(w.clauses, fmt.Sprintf(format, fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) in(column string, vals []any) {
	if len(vals) == 0 {
		return
	}
	placeholders := make([]string, len(vals))
	for i, val := range vals {
		w.args = append(w.args, val)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.clauses, " AND ")
}
