package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReadQuery(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"SELECT * FROM runs", true},
		{"  select id from events;", true},
		{"WITH r AS (SELECT 1) SELECT * FROM r", true},
		{"SELECT\n1", true},
		{"DELETE FROM runs", false},
		{"SELECT 1; DROP TABLE runs", false},
		{"", false},
		{";", false},
	}
	for _, tt := range tests {
		err := CheckReadQuery(tt.query)
		if tt.ok {
			assert.NoError(t, err, tt.query)
		} else {
			assert.ErrorIs(t, err, ErrWriteQuery, tt.query)
		}
	}
}

func TestPositionalArgs(t *testing.T) {
	assert.Empty(t, PositionalArgs(nil))
	assert.Equal(t, []any{"a", 2}, PositionalArgs(map[string]any{"2": 2, "1": "a"}))
	assert.Equal(t, []any{"a"}, PositionalArgs(map[string]any{"1": "a", "3": "c"}))
}
