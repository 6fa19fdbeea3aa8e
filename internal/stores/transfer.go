package stores

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/view"
)

// Transfer handles the bulk data paths: the user-profile export workbook and
// the community-post import upload.
type Transfer struct {
	deps Deps

	// importState tracks one upload at a time. After Success or Error it
	// stays put until Reset; a finished upload is not silently forgotten.
	importState view.State
}

func NewTransfer(d Deps) *Transfer {
	return &Transfer{deps: d}
}

func (s *Transfer) ImportState() *view.State { return &s.importState }

// ExportFilename returns the dated workbook name for the given day.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("users_export_%s.xlsx", now.Format("2006-01-02"))
}

// ExportProfiles streams the export into dir under the dated filename and
// returns the written path. A failed download removes the partial file.
func (s *Transfer) ExportProfiles(ctx context.Context, dir string) (string, int64, error) {
	path := filepath.Join(dir, ExportFilename(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create export file: %w", err)
	}

	n, err := s.deps.Client.ExportProfiles(ctx, f)
	closeErr := f.Close()
	s.deps.record(ctx, "export_profiles", path, err)
	if err != nil {
		_ = os.Remove(path)
		return "", 0, s.deps.fail(err)
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("finish export file: %w", closeErr)
	}

	s.deps.Log.Info().Str("path", path).Int64("bytes", n).Msg("profiles exported")
	return path, n, nil
}

// ImportPosts uploads the spreadsheet at path. The import state moves to
// Loading for the duration, then to Success with the server's message or to
// Error; callers must Reset before starting another upload.
func (s *Transfer) ImportPosts(ctx context.Context, path string) (string, error) {
	if s.importState.Phase() != view.Idle || !s.importState.Begin() {
		return "", ErrBusy
	}

	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("open import file: %w", err)
		s.importState.Fail(err.Error())
		return "", err
	}
	defer f.Close()

	msg, err := s.deps.Client.ImportPosts(ctx, filepath.Base(path), f)
	s.deps.record(ctx, "import_posts", filepath.Base(path), err)
	if err != nil {
		s.importState.Fail(api.UserMessage(err))
		return "", s.deps.fail(err)
	}

	s.importState.Succeed(msg)
	return msg, nil
}
