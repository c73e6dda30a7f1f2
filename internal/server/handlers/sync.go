package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ddepu11/DimensionServer/pkg/api"
)

// SyncService определяет интерфейс ядра синхронизации
type SyncService interface {
	// Push применяет батч мутаций клиентской группы
	Push(ctx context.Context, req *api.PushRequest) error

	// Pull вычисляет diff изменений с checkpoint-версии клиента
	Pull(ctx context.Context, req *api.PullRequest) (*api.PullResponse, error)
}

// SyncHandler handles push and pull requests
type SyncHandler struct {
	logger  *slog.Logger
	service SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, service SyncService) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		service: service,
	}
}

// HandlePush обрабатывает POST /api/replicache/push.
// Успех — пустой JSON объект. Per-mutation ошибки поглощаются сервером;
// HTTP ошибку дает только фатальный abort батча.
func (h *SyncHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode push request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("push request",
		"client_group_id", req.ClientGroupID,
		"mutations_count", len(req.Mutations))

	if err := h.service.Push(ctx, &req); err != nil {
		h.logger.Error("push failed", "error", err, "client_group_id", req.ClientGroupID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, api.PushResponse{})
}

// HandlePull обрабатывает POST /api/replicache/pull.
// При фатальной ошибке частичный патч не отдается никогда —
// только HTTP ошибка целиком.
func (h *SyncHandler) HandlePull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode pull request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("pull request",
		"client_group_id", req.ClientGroupID,
		"cookie", req.Cookie)

	resp, err := h.service.Pull(ctx, &req)
	if err != nil {
		h.logger.Error("pull failed", "error", err, "client_group_id", req.ClientGroupID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, resp)
}

// writeJSON пишет успешный JSON ответ
func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
