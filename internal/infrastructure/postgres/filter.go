package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder arma cláusulas WHERE con placeholders posicionales.
// cond lleva un verbo %d (o %[1]d si el argumento se repite) que recibe la posición.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) where() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page agrega LIMIT/OFFSET. Limit 0 significa sin límite (LIMIT NULL).
func (w *whereBuilder) page(limit, offset int) string {
	var l any
	if limit > 0 {
		l = limit
	}
	if offset < 0 {
		offset = 0
	}
	w.args = append(w.args, l, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
