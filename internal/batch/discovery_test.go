package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"))
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "draft_c.jpg"))
	touch(t, filepath.Join(dir, "nested", "d.tiff"))

	tests := []struct {
		name      string
		recursive bool
		include   []string
		exclude   []string
		want      []string
	}{
		{
			name: "documents only, sorted",
			want: []string{"a.png", "b.pdf", "draft_c.jpg"},
		},
		{
			name:      "recursive",
			recursive: true,
			want:      []string{"a.png", "b.pdf", "draft_c.jpg", "nested/d.tiff"},
		},
		{
			name:    "exclude pattern",
			exclude: []string{"draft_*"},
			want:    []string{"a.png", "b.pdf"},
		},
		{
			name:    "include pattern",
			include: []string{"*.pdf", "*.txt"},
			want:    []string{"b.pdf", "notes.txt"},
		},
		{
			name:      "path pattern",
			recursive: true,
			include:   []string{"**/*.tiff"},
			want:      []string{"nested/d.tiff"},
		},
		{
			name:    "brace pattern",
			include: []string{"*.{png,jpg}"},
			want:    []string{"a.png", "draft_c.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscoverFiles([]string{dir}, tt.recursive, tt.include, tt.exclude)
			require.NoError(t, err)
			rel := make([]string, len(got))
			for i, p := range got {
				r, err := filepath.Rel(dir, p)
				require.NoError(t, err)
				rel[i] = filepath.ToSlash(r)
			}
			assert.Equal(t, tt.want, rel)
		})
	}
}

func TestDiscoverFiles_ExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "z.png")
	b := filepath.Join(dir, "a.pdf")
	touch(t, a)
	touch(t, b)

	got, err := DiscoverFiles([]string{a, b}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got, "argument order is kept")

	got, err = DiscoverFiles([]string{a, b}, false, nil, []string{"*.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, got)

	_, err = DiscoverFiles([]string{filepath.Join(dir, "missing.png")}, false, nil, nil)
	assert.Error(t, err)
}
