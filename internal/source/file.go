package source

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// FileSource ingests an Apollo export file (CSV or XLSX) from a local path
// or an http/ftp URL.
type FileSource struct {
	path   string
	remote *fetcher.Remote
}

// NewFileSource creates a FileSource for the given path or URL.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, remote: fetcher.NewRemote()}
}

func (s *FileSource) Kind() model.SourceKind {
	return model.SourceCSVImport
}

func (s *FileSource) Fetch(ctx context.Context, _ model.Profile, limit int) ([]model.Lead, error) {
	path := s.path
	if isRemote(path) {
		dir, err := os.MkdirTemp("", "leadgen-import-*")
		if err != nil {
			return nil, eris.Wrap(err, "source: create download dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		path, err = s.remote.Fetch(ctx, s.path, dir)
		if err != nil {
			return nil, err
		}
	}

	table, err := fetcher.ReadTable(path)
	if err != nil {
		return nil, err
	}

	var leads []model.Lead
	skipped := 0
	for _, row := range table.Rows {
		if len(leads) >= limit {
			break
		}
		lead := normalize.FromCSVRow(table.Header, row)
		// Rows without a contact identifier cannot be deduplicated;
		// drop them without failing the import.
		if lead.NaturalKey() == "" {
			skipped++
			continue
		}
		leads = append(leads, lead)
	}

	zap.L().Info("source: file import parsed",
		zap.String("path", s.path),
		zap.Int("leads", len(leads)),
		zap.Int("skipped", skipped),
	)
	return leads, nil
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "ftp://")
}
