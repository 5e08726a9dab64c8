package postgres

import (
	"fmt"
	"strings"

	"filehaven/internal/domain/repositories"
)

// Clause is one typed predicate of a WHERE filter. Clauses are immutable;
// a Filter is built up functionally and compiled once.
type Clause interface {
	apply(b *whereBuilder)
}

// Filter is an ordered list of predicate clauses combined with AND.
type Filter []Clause

// NewFilter builds a filter from the given clauses, dropping nils so
// callers can pass conditional clauses inline.
func NewFilter(clauses ...Clause) Filter {
	f := make(Filter, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			f = append(f, c)
		}
	}
	return f
}

// And returns a new filter with the clause appended. The receiver is not
// modified.
func (f Filter) And(c Clause) Filter {
	if c == nil {
		return f
	}
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, c)
}

// Where compiles the filter into a " WHERE ..." fragment and its ordered
// arguments, with placeholders starting at $1. An empty filter compiles to
// an empty fragment.
func (f Filter) Where() (string, []interface{}) {
	if len(f) == 0 {
		return "", nil
	}
	b := &whereBuilder{}
	for _, c := range f {
		c.apply(b)
	}
	return " WHERE " + strings.Join(b.conds, " AND "), b.args
}

type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (b *whereBuilder) arg(v interface{}) int {
	b.args = append(b.args, v)
	return len(b.args)
}

type eqClause struct {
	col string
	val interface{}
}

func (c eqClause) apply(b *whereBuilder) {
	b.conds = append(b.conds, fmt.Sprintf("%s = $%d", c.col, b.arg(c.val)))
}

type isNullClause struct {
	col string
}

func (c isNullClause) apply(b *whereBuilder) {
	b.conds = append(b.conds, c.col+" IS NULL")
}

type inClause struct {
	col  string
	vals []string
}

func (c inClause) apply(b *whereBuilder) {
	b.conds = append(b.conds, fmt.Sprintf("%s = ANY($%d)", c.col, b.arg(c.vals)))
}

type iLikeClause struct {
	col     string
	pattern string
}

func (c iLikeClause) apply(b *whereBuilder) {
	b.conds = append(b.conds, fmt.Sprintf("%s ILIKE $%d", c.col, b.arg(c.pattern)))
}

// Eq matches col = value.
func Eq(col string, val interface{}) Clause { return eqClause{col: col, val: val} }

// IsNull matches col IS NULL.
func IsNull(col string) Clause { return isNullClause{col: col} }

// In matches col against a set of values.
func In(col string, vals []string) Clause { return inClause{col: col, vals: vals} }

// ILike matches col against a case-insensitive pattern.
func ILike(col, pattern string) Clause { return iLikeClause{col: col, pattern: pattern} }

// NullableEq matches col = *val, or col IS NULL when val is nil.
// Used for parent_id/folder_id where NULL means root.
func NullableEq(col string, val *string) Clause {
	if val == nil {
		return IsNull(col)
	}
	return Eq(col, *val)
}

// TrashEq maps a trash scope onto the is_deleted column; ScopeAny
// contributes no clause.
func TrashEq(scope repositories.TrashScope) Clause {
	switch scope {
	case repositories.ScopeActive:
		return Eq("is_deleted", false)
	case repositories.ScopeTrashed:
		return Eq("is_deleted", true)
	default:
		return nil
	}
}
