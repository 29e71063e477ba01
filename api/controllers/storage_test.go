package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/recophone/recophone-backend/internal/storage"
)

type fakeStorageBackend struct {
	listClientsFn func(ctx context.Context) ([]storage.ClientSummary, error)
	listFilesFn   func(ctx context.Context, clientDir string) ([]storage.FileItem, error)
	readFileFn    func(ctx context.Context, relPath string) ([]byte, error)
}

func (f *fakeStorageBackend) ListClients(ctx context.Context) ([]storage.ClientSummary, error) {
	if f.listClientsFn != nil {
		return f.listClientsFn(ctx)
	}
	return []storage.ClientSummary{}, nil
}

func (f *fakeStorageBackend) ListFiles(ctx context.Context, clientDir string) ([]storage.FileItem, error) {
	if f.listFilesFn != nil {
		return f.listFilesFn(ctx, clientDir)
	}
	return []storage.FileItem{}, nil
}

func (f *fakeStorageBackend) ReadFile(ctx context.Context, relPath string) ([]byte, error) {
	if f.readFileFn != nil {
		return f.readFileFn(ctx, relPath)
	}
	return nil, nil
}

func TestStorageFilesCleansPath(t *testing.T) {
	var gotDir string
	backend := &fakeStorageBackend{
		listFilesFn: func(ctx context.Context, clientDir string) ([]storage.FileItem, error) {
			gotDir = clientDir
			now := time.Now()
			return []storage.FileItem{{Name: "devis.pdf", RelPath: clientDir + "/devis.pdf", Size: 1024, ModifiedAt: now}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/storage/files?path=/Dupont_DEV-20250831-120000/", nil)
	resp := httptest.NewRecorder()
	StorageFiles(backend, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d (%s)", resp.Code, resp.Body.String())
	}
	if gotDir != "Dupont_DEV-20250831-120000" {
		t.Fatalf("expected cleaned dir, got %q", gotDir)
	}
}

func TestStorageFilesRejectsTraversal(t *testing.T) {
	backend := &fakeStorageBackend{
		listFilesFn: func(ctx context.Context, clientDir string) ([]storage.FileItem, error) {
			t.Fatal("backend should not be reached for a traversal path")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/storage/files?path=../etc/passwd", nil)
	resp := httptest.NewRecorder()
	StorageFiles(backend, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStorageDownloadSetsAttachmentHeaders(t *testing.T) {
	payload := []byte("%PDF-1.4 fake")
	backend := &fakeStorageBackend{
		readFileFn: func(ctx context.Context, relPath string) ([]byte, error) {
			return payload, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/storage/download?path=Dupont/devis.pdf", nil)
	resp := httptest.NewRecorder()
	StorageDownload(backend, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="devis.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if resp.Body.String() != string(payload) {
		t.Fatal("body does not match the stored file")
	}
}

func TestStorageDownloadRequiresPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/storage/download", nil)
	resp := httptest.NewRecorder()
	StorageDownload(&fakeStorageBackend{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
