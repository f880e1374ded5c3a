package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portaprosoftware/portapro-import/internal/domain"
)

type importLogRepository struct {
	pool *pgxpool.Pool
}

// NewImportLogRepository wires a repository backed by pgxpool.
func NewImportLogRepository(pool *pgxpool.Pool) ImportLogRepository {
	return &importLogRepository{pool: pool}
}

func (r *importLogRepository) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("import log repository not initialized")
	}

	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}
	var field any
	if entry.Field != nil {
		field = *entry.Field
	}
	var userID any
	if entry.UserID != nil {
		userID = *entry.UserID
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO import_logs (organization_id, user_id, entity_type, file_name, row_number, field, message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.OrganizationID,
		userID,
		entry.EntityType,
		entry.FileName,
		rowNumber,
		field,
		entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record import log: %w", err)
	}

	return nil
}

func (r *importLogRepository) List(ctx context.Context, organizationID uuid.UUID, entityType string, limit int, offset int) ([]domain.ImportLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, organization_id, user_id, entity_type, file_name, row_number, field, message, created_at
		 FROM import_logs
		 WHERE organization_id = $1
		   AND entity_type = $2
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		organizationID,
		entityType,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.ImportLogEntry{}
	for rows.Next() {
		var (
			entry     domain.ImportLogEntry
			userID    pgtype.UUID
			rowNumber pgtype.Int4
			field     pgtype.Text
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.OrganizationID,
			&userID,
			&entry.EntityType,
			&entry.FileName,
			&rowNumber,
			&field,
			&entry.Message,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", scanErr)
		}

		if userID.Valid {
			value := uuid.UUID(userID.Bytes)
			entry.UserID = &value
		}
		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if field.Valid {
			entry.Field = &field.String
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", rowsErr)
	}

	return logs, nil
}
