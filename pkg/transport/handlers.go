package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// WebhookHandler consumes one webhook request. It returns an error only when
// the request itself cannot be decoded.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, r *http.Request) error
}

type Handler struct {
	webhook WebhookHandler
}

func Router(webhookPath string, webhook WebhookHandler) http.Handler {
	handler := &Handler{webhook: webhook}

	r := mux.NewRouter()
	r.HandleFunc(webhookPath, handler.webhookHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handler.healthHandler).Methods(http.MethodGet)

	return logMiddleware(r)
}

func (h *Handler) webhookHandler(w http.ResponseWriter, r *http.Request) {
	// The update is handled to completion even if Telegram drops the connection.
	ctx := context.WithoutCancel(r.Context())
	if err := h.webhook.HandleWebhook(ctx, r); err != nil {
		log.WithError(err).Warn("malformed webhook request")
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, "ok"); err != nil {
		log.WithField("err", err).Error("write health response")
	}
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}
