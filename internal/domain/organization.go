package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant in the system. Every entity row and
// every import-time query is scoped to an organization ID.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrganization creates a new organization with a generated ID.
func NewOrganization(name string) Organization {
	now := time.Now()
	return Organization{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithName returns a copy of the organization with an updated name.
func (o Organization) WithName(name string) Organization {
	o.Name = name
	o.UpdatedAt = time.Now()
	return o
}
