package migrate

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_EmbeddedMigrations(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate())
}

func TestValidateFS(t *testing.T) {
	t.Parallel()

	ok := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name:  "valid",
			files: fstest.MapFS{"migrations/20250101000000_init.sql": {Data: []byte(ok)}},
		},
		{
			name:    "bad name",
			files:   fstest.MapFS{"migrations/init.sql": {Data: []byte(ok)}},
			wantErr: "invalid migration filename",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"migrations/20250101000000_a.sql": {Data: []byte(ok)},
				"migrations/20250101000000_b.sql": {Data: []byte(ok)},
			},
			wantErr: "duplicate migration version",
		},
		{
			name:    "missing down",
			files:   fstest.MapFS{"migrations/20250101000000_init.sql": {Data: []byte("-- +goose Up\nSELECT 1;")}},
			wantErr: "missing \"-- +goose Down\"",
		},
		{
			name:    "empty",
			files:   fstest.MapFS{"migrations/README.md": {Data: []byte("x")}},
			wantErr: "no migrations found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateFS(tt.files)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMigrationsDefineSchema(t *testing.T) {
	t.Parallel()

	var all strings.Builder
	err := fs.WalkDir(migrations, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(migrations, path)
		all.Write(b)
		return err
	})
	require.NoError(t, err)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS products",
		"platforms JSONB",
		"CREATE TABLE IF NOT EXISTS tracked_items",
		"UNIQUE (user_id, product_id)",
		"CREATE TABLE IF NOT EXISTS alerts",
	} {
		assert.Contains(t, all.String(), sub)
	}
}
