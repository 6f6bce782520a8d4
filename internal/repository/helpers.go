package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func normalisePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// expectAffected maps an update or delete that touched no rows to sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// dateArg renders a DATE parameter from the value's own calendar day, so the session time zone
// of the database cannot shift it.
func dateArg(t time.Time) string {
	return t.Format("2006-01-02")
}

// filters accumulates WHERE clauses. Each "?" in a clause is bound to the clause's value, so
// one value may appear several times, e.g. "(a LIKE ? OR b LIKE ?)".
type filters struct {
	clauses []string
	args    []interface{}
}

func (f *filters) add(clause string, value interface{}) {
	f.args = append(f.args, value)
	f.clauses = append(f.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *filters) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// like returns a case-insensitive substring pattern.
func like(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

// sorting maps client sort keys to columns. Unknown keys and directions fall back to the defaults.
type sorting struct {
	columns   map[string]string
	fallback  string
	direction string
}

func (s sorting) clause(key, direction string) string {
	column, ok := s.columns[key]
	if !ok {
		column = s.fallback
	}
	direction = strings.ToUpper(direction)
	if direction != "ASC" && direction != "DESC" {
		direction = s.direction
	}
	return column + " " + direction
}

// pageClause renders LIMIT/OFFSET for a 1-based page.
func pageClause(page, pageSize int) string {
	page, pageSize = normalisePage(page, pageSize)
	return fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
}
