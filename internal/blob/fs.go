package blob

import (
	"context"
	"os"
	"path/filepath"

	dErrors "scriba/pkg/domain-errors"
)

// FSStore keeps blobs under a local root directory. It stands in for the
// managed object store in deployments that mount shared storage.
type FSStore struct {
	root string
}

func NewFS(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) Upload(_ context.Context, path string, data []byte) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "create blob directory", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "write blob: "+path, err)
	}
	return nil
}

func (s *FSStore) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blob not found: "+path)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read blob: "+path, err)
	}
	return data, nil
}

func (s *FSStore) resolve(path string) string {
	return filepath.Join(s.root, filepath.Clean("/"+path))
}
