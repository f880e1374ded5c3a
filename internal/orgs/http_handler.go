package orgs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/portaprosoftware/portapro-import/internal/domain"
	"github.com/portaprosoftware/portapro-import/internal/repository"
)

// Handler exposes the organization admin endpoints.
type Handler struct {
	repo   repository.OrganizationRepository
	logger *zap.Logger
}

// NewHandler wires the organization endpoints.
func NewHandler(repo repository.OrganizationRepository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes registers the organization endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/organizations", h.handleCreate)
	r.Get("/organizations", h.handleList)
	r.Get("/organizations/{id}", h.handleGet)
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.repo.Create(r.Context(), domain.NewOrganization(req.Name))
	if err != nil {
		h.logger.Error("failed to create organization", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create organization")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	organizations, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list organizations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list organizations")
		return
	}
	writeJSON(w, http.StatusOK, organizations)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	org, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "organization not found")
			return
		}
		h.logger.Error("failed to get organization", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get organization")
		return
	}

	writeJSON(w, http.StatusOK, org)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
