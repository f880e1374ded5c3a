package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/portaprosoftware/portapro-import/internal/csvparse"
	"github.com/portaprosoftware/portapro-import/internal/domain"
	"github.com/portaprosoftware/portapro-import/internal/repository"
)

// Service drives bulk imports: per-row validation, organization-scoped
// foreign-key checks, insert-or-update persistence, and aggregation of the
// per-row outcome. It holds no mutable state between calls, so concurrent
// imports are isolated from each other.
type Service struct {
	store  repository.EntityStore
	logs   repository.ImportLogRepository
	logger *zap.Logger
}

// NewService creates a new import service. logs may be nil, in which case
// row failures are not persisted for later review.
func NewService(store repository.EntityStore, logs repository.ImportLogRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logs: logs, logger: logger}
}

// Request describes one import invocation.
type Request struct {
	Type     string
	OrgID    uuid.UUID
	UserID   *uuid.UUID
	FileName string
	Rows     []csvparse.Record
}

// RowError is a failure attributable to one source row. Field is nil for
// row-level errors (foreign keys, persistence); otherwise it names the
// offending column.
type RowError struct {
	RowNumber int     `json:"rowNumber"`
	Field     *string `json:"field"`
	Message   string  `json:"message"`
}

// Result summarizes an import. OK is true only when zero rows failed.
type Result struct {
	OK          bool       `json:"ok"`
	TotalRows   int        `json:"totalRows"`
	SuccessRows int        `json:"successRows"`
	FailedRows  int        `json:"failedRows"`
	Errors      []RowError `json:"errors"`
}

// Run processes every row of the request sequentially. Rows are
// independent: schema violations, foreign-key misses, and persistence
// failures are recorded against the individual row and never abort the
// batch. A missing organization ID or unknown entity type is a hard
// precondition failure before any store call.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{Errors: []RowError{}}

	if req.OrgID == uuid.Nil {
		return result, fmt.Errorf("organization id is required")
	}
	cfg, ok := Lookup(req.Type)
	if !ok {
		return result, fmt.Errorf("unsupported entity type %q", req.Type)
	}

	result.TotalRows = len(req.Rows)

	for i, row := range req.Rows {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import aborted after %d rows: %w", i, err)
		}

		// Header occupies source line 1, so data row i is line i+2.
		rowNumber := i + 2

		values, fieldErrs := cfg.Schema.Validate(row)
		if len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				s.failRow(ctx, req, &result, rowNumber, &fe.Field, fe.Message)
			}
			result.FailedRows++
			continue
		}

		// The tenant is never taken from row data.
		delete(values, "organization_id")

		if !s.checkForeignKeys(ctx, req, cfg, values, rowNumber, &result) {
			result.FailedRows++
			continue
		}

		if err := s.persistRow(ctx, req, cfg, values); err != nil {
			s.failRow(ctx, req, &result, rowNumber, nil, err.Error())
			result.FailedRows++
			continue
		}

		result.SuccessRows++
	}

	result.OK = result.FailedRows == 0

	s.logger.Info("import finished",
		zap.String("entity_type", req.Type),
		zap.String("organization_id", req.OrgID.String()),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("failed_rows", result.FailedRows),
	)

	return result, nil
}

// checkForeignKeys verifies every non-empty foreign-key value against the
// referenced table, scoped to the requesting organization. A reference
// that only exists under another tenant is indistinguishable from a
// missing one.
func (s *Service) checkForeignKeys(ctx context.Context, req Request, cfg EntityConfig, values map[string]any, rowNumber int, result *Result) bool {
	for _, fk := range cfg.Schema.ForeignKeys {
		raw, ok := values[fk.Field].(string)
		if !ok || raw == "" {
			continue
		}

		refID, err := uuid.Parse(raw)
		if err != nil {
			// Foreign-key fields are UUID fields; validation already
			// rejected unparseable values.
			s.failRow(ctx, req, result, rowNumber, nil, fk.Message)
			return false
		}

		exists, err := s.store.Exists(ctx, fk.Table, req.OrgID, refID)
		if err != nil {
			s.failRow(ctx, req, result, rowNumber, nil, fmt.Sprintf("failed to verify %s: %s", fk.Field, err))
			return false
		}
		if !exists {
			s.failRow(ctx, req, result, rowNumber, nil, fk.Message)
			return false
		}
	}
	return true
}

// persistRow decides insert versus update. A row carrying an id updates
// the existing record scoped to the organization; an update that matches
// nothing is an error, not a silent no-op. Rows without an id insert under
// a generated id.
func (s *Service) persistRow(ctx context.Context, req Request, cfg EntityConfig, values map[string]any) error {
	rawID, hasID := values["id"].(string)
	delete(values, "id")

	if hasID && rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("id must be a valid UUID")
		}
		found, err := s.store.UpdateByID(ctx, cfg.Table, req.OrgID, id, values)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no existing %s row with id %s in this organization", req.Type, id)
		}
		return nil
	}

	return s.store.Insert(ctx, cfg.Table, req.OrgID, uuid.New(), values)
}

func (s *Service) failRow(ctx context.Context, req Request, result *Result, rowNumber int, field *string, message string) {
	result.Errors = append(result.Errors, RowError{
		RowNumber: rowNumber,
		Field:     field,
		Message:   message,
	})

	if s.logs == nil {
		return
	}
	entry := domain.ImportLogEntry{
		OrganizationID: req.OrgID,
		UserID:         req.UserID,
		EntityType:     req.Type,
		FileName:       req.FileName,
		RowNumber:      &rowNumber,
		Field:          field,
		Message:        message,
	}
	if err := s.logs.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record import log", zap.Error(err))
	}
}
