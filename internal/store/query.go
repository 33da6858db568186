package store

import (
	"errors"
	"strconv"
	"strings"
)

// ErrWriteQuery is returned by RunSQL for anything but a single read statement.
var ErrWriteQuery = errors.New("only a single SELECT or WITH statement is allowed")

// CheckReadQuery accepts one SELECT or WITH statement, optionally terminated
// by a semicolon.
func CheckReadQuery(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	if q == "" || strings.Contains(q, ";") {
		return ErrWriteQuery
	}
	first, _, _ := strings.Cut(q, " ")
	first, _, _ = strings.Cut(first, "\n")
	switch strings.ToLower(first) {
	case "select", "with":
		return nil
	}
	return ErrWriteQuery
}

// PositionalArgs orders params keyed "1", "2", ... into driver arguments.
// Numbering stops at the first gap.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; ; i++ {
		val, ok := params[strconv.Itoa(i)]
		if !ok {
			return args
		}
		args = append(args, val)
	}
}
