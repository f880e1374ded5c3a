package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/portaprosoftware/portapro-import/internal/auth"
	"github.com/portaprosoftware/portapro-import/internal/csvparse"
	"github.com/portaprosoftware/portapro-import/internal/repository"
)

// DefaultMaxBodyBytes caps the request body read before parsing.
const DefaultMaxBodyBytes = 2 << 20

// Limits carries the structural bounds applied to each upload.
type Limits struct {
	MaxRows      int
	MaxColumns   int
	MaxBodyBytes int64
}

func (l Limits) maxBodyBytes() int64 {
	if l.MaxBodyBytes > 0 {
		return l.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

func (l Limits) parseOptions() csvparse.Options {
	return csvparse.Options{MaxRows: l.MaxRows, MaxColumns: l.MaxColumns}
}

// Handler exposes the import service over HTTP. The upload may be a raw
// CSV body, a {"csv": "..."} JSON envelope, or a multipart file (.csv or
// .xlsx). Tenant identity comes exclusively from the auth middleware.
type Handler struct {
	service *Service
	logs    repository.ImportLogRepository
	limits  Limits
	logger  *zap.Logger
}

// NewHandler wires the import endpoints.
func NewHandler(service *Service, logs repository.ImportLogRepository, limits Limits, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logs: logs, limits: limits, logger: logger}
}

// Routes registers the import endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/import/{entityType}", h.handleImport)
	r.Get("/import/{entityType}/logs", h.handleLogs)
}

type errorEnvelope struct {
	Error string `json:"error"`
}

type csvEnvelope struct {
	CSV string `json:"csv"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	if _, ok := Lookup(entityType); !ok {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error: fmt.Sprintf("unsupported entity type %q, expected one of: %s", entityType, strings.Join(SupportedTypes(), ", ")),
		})
		return
	}

	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "organization scope is required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.maxBodyBytes())

	parsed, fileName, err := h.readUpload(r)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorEnvelope{Error: err.Error()})
		return
	}

	req := Request{
		Type:     entityType,
		OrgID:    orgID,
		FileName: fileName,
		Rows:     parsed.Rows,
	}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		req.UserID = &userID
	}

	result, err := h.service.Run(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if !result.OK {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// readUpload extracts and parses the CSV (or XLSX) payload from the
// request based on its content type.
func (h *Handler) readUpload(r *http.Request) (*csvparse.Result, string, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch contentType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.limits.maxBodyBytes()); err != nil {
			return nil, "", fmt.Errorf("invalid form data: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("file required: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read file: %w", err)
		}

		if strings.ToLower(filepath.Ext(header.Filename)) == ".xlsx" {
			records, err := sheetRecords(data)
			if err != nil {
				return nil, "", err
			}
			parsed, err := csvparse.FromRecords(records, h.limits.parseOptions())
			return parsed, header.Filename, err
		}

		parsed, err := csvparse.Parse(string(data), h.limits.parseOptions())
		return parsed, header.Filename, err

	case "application/json":
		var envelope csvEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			return nil, "", fmt.Errorf("invalid json envelope: %w", err)
		}
		parsed, err := csvparse.Parse(envelope.CSV, h.limits.parseOptions())
		return parsed, "", err

	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read body: %w", err)
		}
		parsed, err := csvparse.Parse(string(data), h.limits.parseOptions())
		return parsed, "", err
	}
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	if _, ok := Lookup(entityType); !ok {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: fmt.Sprintf("unsupported entity type %q", entityType)})
		return
	}

	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "organization scope is required"})
		return
	}

	limit := queryInt(r, "limit", 200)
	offset := queryInt(r, "offset", 0)

	entries, err := h.logs.List(r.Context(), orgID, entityType, limit, offset)
	if err != nil {
		h.logger.Error("failed to list import logs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: "failed to list import logs"})
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
