package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://app:secret@db:5432/m?sslmode=disable", "pgx5://app:secret@db:5432/m?sslmode=disable"},
		{"postgresql://app@db/m", "pgx5://app@db/m"},
		{"pgx5://already", "pgx5://already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MigrateURL(tt.in))
	}
}
