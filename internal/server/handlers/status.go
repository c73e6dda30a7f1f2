package handlers

import (
	"log/slog"
	"net/http"
)

// StatusHandler обрабатывает status check запросы
type StatusHandler struct {
	logger *slog.Logger
}

// NewStatusHandler создает новый handler для status check
func NewStatusHandler(logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		logger: logger,
	}
}

// StatusResponse представляет ответ status check
type StatusResponse struct {
	Message string `json:"message"`
}

// Status обрабатывает GET /api/status
// Status check endpoint для мониторинга
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Message: "Server is running fine! Sab Changa si :)",
	}

	writeJSON(w, h.logger, resp)
}
