package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// FileItem is one stored document.
type FileItem struct {
	Name       string    `json:"name"`
	RelPath    string    `json:"rel_path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ClientSummary aggregates one customer folder for the back-office list.
type ClientSummary struct {
	Client       string     `json:"client"`
	RelPath      string     `json:"rel_path"`
	FileCount    int        `json:"file_count"`
	TotalSize    int64      `json:"total_size"`
	LastModified *time.Time `json:"last_modified"`
}

// Backend lists and serves the generated documents. Two implementations
// exist: the local disk of the shop machine and the hoster's FTP space.
type Backend interface {
	ListClients(ctx context.Context) ([]ClientSummary, error)
	ListFiles(ctx context.Context, clientDir string) ([]FileItem, error)
	ReadFile(ctx context.Context, relPath string) ([]byte, error)
}

// New selects the backend from configuration.
func New(cfg config.StorageConfig) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.StorageBackendLocal:
		return NewLocal(cfg.LocalRoot)
	case config.StorageBackendFTP:
		return NewFTP(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// CleanRel normalizes a client-supplied relative path and rejects
// anything that could escape the root. Checked before touching the
// filesystem or the FTP connection.
func CleanRel(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path is required")
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "path escapes the storage root")
		}
	}
	return rel, nil
}

func hidden(name string) bool {
	return name == "" || strings.HasPrefix(name, ".")
}

func sortFilesNewestFirst(files []FileItem) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModifiedAt.After(files[j].ModifiedAt)
	})
}

func sortClientsNewestFirst(clients []ClientSummary) {
	sort.Slice(clients, func(i, j int) bool {
		var a, b time.Time
		if clients[i].LastModified != nil {
			a = *clients[i].LastModified
		}
		if clients[j].LastModified != nil {
			b = *clients[j].LastModified
		}
		return a.After(b)
	})
}

func summarize(name, relPath string, files []FileItem) ClientSummary {
	summary := ClientSummary{Client: name, RelPath: relPath, FileCount: len(files)}
	for _, f := range files {
		summary.TotalSize += f.Size
		if summary.LastModified == nil || f.ModifiedAt.After(*summary.LastModified) {
			t := f.ModifiedAt
			summary.LastModified = &t
		}
	}
	return summary
}
