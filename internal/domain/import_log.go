package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportLogEntry captures one row-level failure observed during a bulk
// import, persisted so operators can review rejected rows after the fact.
type ImportLogEntry struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	EntityType     string     `json:"entity_type"`
	FileName       string     `json:"file_name"`
	RowNumber      *int       `json:"row_number,omitempty"`
	Field          *string    `json:"field,omitempty"`
	Message        string     `json:"message"`
	CreatedAt      time.Time  `json:"created_at"`
}
