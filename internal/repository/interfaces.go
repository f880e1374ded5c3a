package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/portaprosoftware/portapro-import/internal/domain"
)

// EntityStore is the tenant-scoped persistence contract the import service
// runs against. Table names are always taken from the importer registry's
// closed set; implementations must scope every statement to the given
// organization ID.
type EntityStore interface {
	// Exists reports whether a row with the given primary key exists in
	// the table within the organization.
	Exists(ctx context.Context, table string, organizationID, id uuid.UUID) (bool, error)
	// Insert writes a new row. values maps column names to typed values;
	// id and organization_id are supplied separately and always win.
	Insert(ctx context.Context, table string, organizationID, id uuid.UUID, values map[string]any) error
	// UpdateByID updates the row with the given primary key within the
	// organization. found is false when no row matched.
	UpdateByID(ctx context.Context, table string, organizationID, id uuid.UUID, values map[string]any) (found bool, err error)
}

// OrganizationRepository defines the interface for organization operations.
type OrganizationRepository interface {
	Create(ctx context.Context, org domain.Organization) (domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

// ImportLogRepository stores row-level import failures for observability.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, organizationID uuid.UUID, entityType string, limit int, offset int) ([]domain.ImportLogEntry, error)
}
