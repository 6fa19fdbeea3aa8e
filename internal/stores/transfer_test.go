package stores

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mira-platform/miractl/internal/view"
)

func TestExportFilename(t *testing.T) {
	day := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, "users_export_2025-06-15.xlsx", ExportFilename(day))
}

func TestExportProfilesWritesFile(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x01, 0x02}
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	s := NewTransfer(h.deps)
	dir := t.TempDir()

	path, n, err := s.ExportProfiles(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, dir, filepath.Dir(path))
}

func TestExportProfilesFailureRemovesPartialFile(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusInternalServerError, "export job failed")
	})
	s := NewTransfer(h.deps)
	dir := t.TempDir()

	_, _, err := s.ExportProfiles(context.Background(), dir)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImportPostsStateMachine(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "posts.xlsx", header.Filename)
		w.Write([]byte(`{"success":true,"message":"imported 3 posts"}`))
	})
	s := NewTransfer(h.deps)

	path := filepath.Join(t.TempDir(), "posts.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("sheet"), 0o644))

	assert.Equal(t, view.Idle, s.ImportState().Phase())

	msg, err := s.ImportPosts(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "imported 3 posts", msg)
	assert.Equal(t, view.Success, s.ImportState().Phase())
	assert.Equal(t, "imported 3 posts", s.ImportState().Message())

	// the result screen holds until an explicit reset
	_, err = s.ImportPosts(context.Background(), path)
	assert.ErrorIs(t, err, ErrBusy)

	s.ImportState().Reset()
	_, err = s.ImportPosts(context.Background(), path)
	require.NoError(t, err)
}

func TestImportPostsFailure(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusBadRequest, "unsupported file format")
	})
	s := NewTransfer(h.deps)

	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0o644))

	_, err := s.ImportPosts(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, view.Error, s.ImportState().Phase())
	assert.Equal(t, "unsupported file format", s.ImportState().Message())
}
