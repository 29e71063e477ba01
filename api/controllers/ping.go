package controllers

import (
	"net/http"

	"github.com/recophone/recophone-backend/api/middleware"
	"github.com/recophone/recophone-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "admin", "status": "ok"}
		if user := middleware.AdminUserFromContext(r.Context()); user != "" {
			payload["user"] = user
		}
		responses.WriteSuccess(w, payload)
	}
}
