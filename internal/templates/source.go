// Package templates provides access to the deployment-static PDF template
// files, optionally fronted by a Redis cache.
package templates

import (
	"context"
	"os"
	"path/filepath"

	dErrors "scriba/pkg/domain-errors"
)

// Source fetches template bytes by filename. Missing template bytes are fatal
// for a generation request, so implementations surface the attempted path.
type Source interface {
	Download(ctx context.Context, filename string) ([]byte, error)
}

// DirSource serves templates from a local directory.
type DirSource struct {
	root string
}

func NewDir(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) Download(_ context.Context, filename string) ([]byte, error) {
	path := filepath.Join(s.root, filepath.Clean("/"+filename))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "template not found: "+path)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read template: "+path, err)
	}
	return data, nil
}
