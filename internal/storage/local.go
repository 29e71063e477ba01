package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// Local serves documents from a directory on the shop machine.
type Local struct {
	root string
}

// NewLocal resolves and checks the storage root.
func NewLocal(root string) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	return &Local{root: abs}, nil
}

func (l *Local) abs(rel string) (string, error) {
	clean, err := CleanRel(rel)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(l.root, filepath.FromSlash(clean))
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(filepath.Separator)) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path escapes the storage root")
	}
	return abs, nil
}

// ListClients returns one summary per top-level customer folder, newest
// activity first. Dotfiles and dot-directories stay hidden.
func (l *Local) ListClients(_ context.Context) ([]ClientSummary, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []ClientSummary{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read storage root")
	}

	clients := []ClientSummary{}
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		files, err := l.walk(filepath.Join(l.root, e.Name()))
		if err != nil {
			return nil, err
		}
		clients = append(clients, summarize(e.Name(), e.Name(), files))
	}
	sortClientsNewestFirst(clients)
	return clients, nil
}

// ListFiles walks one customer folder recursively, newest first.
func (l *Local) ListFiles(_ context.Context, clientDir string) ([]FileItem, error) {
	abs, err := l.abs(clientDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "client folder not found")
	}
	if !info.IsDir() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "not a client folder")
	}
	files, err := l.walk(abs)
	if err != nil {
		return nil, err
	}
	sortFilesNewestFirst(files)
	return files, nil
}

// ReadFile returns the raw file content for download.
func (l *Local) ReadFile(_ context.Context, relPath string) ([]byte, error) {
	abs, err := l.abs(relPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read file")
	}
	return raw, nil
}

func (l *Local) walk(dir string) ([]FileItem, error) {
	files := []FileItem{}
	stack := []string{dir}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur)
		if err != nil {
			// A folder disappearing mid-walk is not fatal.
			continue
		}
		for _, e := range entries {
			if hidden(e.Name()) {
				continue
			}
			abs := filepath.Join(cur, e.Name())
			if e.IsDir() {
				stack = append(stack, abs)
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(l.root, abs)
			if err != nil {
				continue
			}
			files = append(files, FileItem{
				Name:       e.Name(),
				RelPath:    filepath.ToSlash(rel),
				Size:       info.Size(),
				ModifiedAt: info.ModTime(),
			})
		}
	}
	return files, nil
}
