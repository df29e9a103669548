package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"connecthub/internal/httputil"
	"connecthub/internal/media"
)

type MediaHandler struct {
	store media.Store
}

func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// Serve handles GET /media/*
// Streams stored media with range support so video players can seek.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !media.ValidKey(key) {
		httputil.WriteNotFound(w, "Media not found")
		return
	}

	obj, data, err := h.store.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, err, "get media", "Failed to get media")
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", media.CacheControl)
	http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(data))
}
