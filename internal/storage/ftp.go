package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/multierr"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// FTP serves documents from the hoster's FTP space. Every operation
// opens its own short-lived connection; the admin pages are low-traffic
// and hosting providers drop idle control connections anyway.
type FTP struct {
	addr     string
	user     string
	password string
	base     string
	timeout  time.Duration
}

// NewFTP builds the backend from configuration.
func NewFTP(cfg config.StorageConfig) (*FTP, error) {
	if cfg.FTPHost == "" || cfg.FTPUser == "" {
		return nil, fmt.Errorf("ftp host and user are required")
	}
	port := cfg.FTPPort
	if port <= 0 {
		port = 21
	}
	timeout := cfg.FTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.FTPRoot, "/")
	if base == "" {
		base = "/"
	}
	return &FTP{
		addr:     fmt.Sprintf("%s:%d", cfg.FTPHost, port),
		user:     cfg.FTPUser,
		password: cfg.FTPPassword,
		base:     base,
		timeout:  timeout,
	}, nil
}

func (f *FTP) withConn(ctx context.Context, fn func(conn *ftp.ServerConn) error) (err error) {
	conn, dialErr := ftp.Dial(f.addr, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if dialErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, dialErr, "dial ftp")
	}
	defer func() { err = multierr.Append(err, conn.Quit()) }()

	if err := conn.Login(f.user, f.password); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ftp login")
	}
	return fn(conn)
}

func (f *FTP) join(rel string) string {
	rel = strings.Trim(rel, "/")
	if f.base == "/" {
		return "/" + rel
	}
	if rel == "" {
		return f.base
	}
	return f.base + "/" + rel
}

// isDir checks a path with a cd-and-revert round trip. Entry types in
// listings are unreliable across servers; an actual cd is not.
func isDir(conn *ftp.ServerConn, path string) bool {
	back, err := conn.CurrentDir()
	if err != nil {
		back = "/"
	}
	if err := conn.ChangeDir(path); err != nil {
		return false
	}
	_ = conn.ChangeDir(back)
	return true
}

// ListClients lists the top-level customer folders, newest first.
func (f *FTP) ListClients(ctx context.Context) ([]ClientSummary, error) {
	clients := []ClientSummary{}
	err := f.withConn(ctx, func(conn *ftp.ServerConn) error {
		entries, err := conn.List(f.base)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ftp root")
		}
		for _, e := range entries {
			if hidden(e.Name) {
				continue
			}
			full := f.join(e.Name)
			if !isDir(conn, full) {
				continue
			}
			files, err := f.collect(conn, full)
			if err != nil {
				return err
			}
			clients = append(clients, summarize(e.Name, e.Name, files))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortClientsNewestFirst(clients)
	return clients, nil
}

// ListFiles walks one customer folder recursively, newest first.
func (f *FTP) ListFiles(ctx context.Context, clientDir string) ([]FileItem, error) {
	clean, err := CleanRel(clientDir)
	if err != nil {
		return nil, err
	}
	var files []FileItem
	err = f.withConn(ctx, func(conn *ftp.ServerConn) error {
		root := f.join(clean)
		if !isDir(conn, root) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "client folder not found")
		}
		files, err = f.collect(conn, root)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortFilesNewestFirst(files)
	return files, nil
}

// ReadFile downloads one file for serving.
func (f *FTP) ReadFile(ctx context.Context, relPath string) ([]byte, error) {
	clean, err := CleanRel(relPath)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = f.withConn(ctx, func(conn *ftp.ServerConn) error {
		resp, err := conn.Retr(f.join(clean))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "retrieve file")
		}
		defer func() { _ = resp.Close() }()
		raw, err = io.ReadAll(resp)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read file body")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *FTP) collect(conn *ftp.ServerConn, dir string) ([]FileItem, error) {
	files := []FileItem{}
	stack := []string{dir}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := conn.List(cur)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if hidden(e.Name) {
				continue
			}
			full := strings.TrimRight(cur, "/") + "/" + e.Name
			if isDir(conn, full) {
				stack = append(stack, full)
				continue
			}
			rel := strings.TrimPrefix(full, f.base)
			rel = strings.TrimPrefix(rel, "/")
			files = append(files, FileItem{
				Name:       e.Name,
				RelPath:    rel,
				Size:       int64(e.Size),
				ModifiedAt: e.Time,
			})
		}
	}
	return files, nil
}
