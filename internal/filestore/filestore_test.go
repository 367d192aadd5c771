package filestore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRelative(t *testing.T) {
	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr bool
	}{
		{"simple path", "documents/abc/file.pdf", "documents/abc/file.pdf", false},
		{"leading slash stripped", "/documents/file.pdf", "documents/file.pdf", false},
		{"leading backslash stripped", "\\documents\\..", "", true},
		{"dot segments collapsed", "documents/./file.pdf", "documents/file.pdf", false},
		{"parent escape", "../etc/passwd", "", true},
		{"embedded parent escape", "documents/../../etc/passwd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanRelative(tt.rel)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafePath)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename("../../My Report (final).pdf")

	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, " ")
	assert.NotContains(t, got, "(")
	assert.True(t, strings.HasSuffix(got, "My_Report__final_.pdf"), got)
}

func TestSaveDocumentAndOpen(t *testing.T) {
	store := New(t.TempDir())

	rel, err := store.SaveDocument("kyc-1", "statement.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "documents/kyc-1/statement.pdf", rel)

	data, err := store.Open(rel)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Open("../outside.txt")
	assert.ErrorIs(t, err, ErrUnsafePath)
}
