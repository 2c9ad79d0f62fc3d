package recordmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldColumnDef(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{
			name:  "bare type",
			field: NewField(Text),
			want:  "name TEXT",
		},
		{
			name:  "primary key",
			field: NewField(Integer, PrimaryKey(), NotNull()),
			want:  "name INTEGER PRIMARY KEY NOT NULL",
		},
		{
			name:  "unique not null",
			field: NewField(Text, Unique(), NotNull()),
			want:  "name TEXT NOT NULL UNIQUE",
		},
		{
			name:  "numeric default",
			field: NewField(Integer, Default(0)),
			want:  "name INTEGER DEFAULT 0",
		},
		{
			name:  "string default is quoted",
			field: NewField(Text, Default("pending")),
			want:  "name TEXT DEFAULT 'pending'",
		},
		{
			name:  "all clauses in fixed order",
			field: NewField(Integer, PrimaryKey(), NotNull(), Default(5), Unique()),
			want:  "name INTEGER PRIMARY KEY NOT NULL DEFAULT 5 UNIQUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.field.ColumnDef("name")
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "  ", "omitted clauses must leave no stray separators")
			assert.Equal(t, got, strings.TrimSpace(got))
		})
	}
}

func TestFieldDefaults(t *testing.T) {
	f := NewField(Text)
	assert.False(t, f.PrimaryKey)
	assert.True(t, f.Nullable)
	assert.False(t, f.Unique)
	assert.Nil(t, f.Default)
}
