// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ContactEmail, "  me@example.org \n")
				writeFile(t, dir, "other-key", "value")
				return dir
			},
			want: map[string]string{ContactEmail: "me@example.org", "other-key": "value"},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ContactEmail, "me@example.org")
				writeFile(t, dir, "blank", "  \n\t")
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{ContactEmail: "me@example.org"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_UnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read mode 000 files")
	}
	dir := t.TempDir()
	writeFile(t, dir, ContactEmail, "me@example.org")
	bad := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	var log bytes.Buffer
	got, err := Load(dir, &log)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ContactEmail: "me@example.org"}, got)
	assert.Contains(t, log.String(), "warning: could not read secret bad-key")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "citation-engine/dev", UserAgent("citation-engine", "dev", ""))
	assert.Equal(t, "citation-engine/1.2.0 (mailto:me@example.org)",
		UserAgent("citation-engine", "v1.2.0", " me@example.org "))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
