package sqlxrepos

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// uniqueViolation is pq's error code for unique index violations.
const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// argCond renders a WHERE fragment with positional placeholders. Each %d in
// the format is filled with the same set of indices, e.g.
// argCond(" AND x = $%d", 3) -> " AND x = $3".
func argCond(format string, indices ...int) string {
	args := make([]interface{}, 0, len(indices))
	for _, i := range indices {
		args = append(args, i)
	}
	return fmt.Sprintf(format, args...)
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
