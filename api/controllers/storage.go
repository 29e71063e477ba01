package controllers

import (
	"fmt"
	"mime"
	"net/http"
	"path"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/internal/storage"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// StorageClients lists the customer folders of the document store.
func StorageClients(backend storage.Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if backend == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage backend unavailable"))
			return
		}
		clients, err := backend.ListClients(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"clients": clients})
	}
}

// StorageFiles lists the documents inside one customer folder.
func StorageFiles(backend storage.Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if backend == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage backend unavailable"))
			return
		}
		dir, err := storage.CleanRel(r.URL.Query().Get("path"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		files, err := backend.ListFiles(r.Context(), dir)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"path": dir, "files": files})
	}
}

// StorageDownload streams one stored document as an attachment.
func StorageDownload(backend storage.Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if backend == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage backend unavailable"))
			return
		}
		rel, err := storage.CleanRel(r.URL.Query().Get("path"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := backend.ReadFile(r.Context(), rel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := path.Base(rel)
		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
		_, _ = w.Write(payload)
	}
}
