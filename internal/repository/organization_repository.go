package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portaprosoftware/portapro-import/internal/domain"
)

// organizationRepository implements OrganizationRepository on top of pgx.
type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new organization repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) Create(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO organizations (id, name)
		 VALUES ($1, $2)
		 RETURNING id, name, created_at, updated_at`,
		org.ID,
		org.Name,
	)

	var created domain.Organization
	if err := row.Scan(&created.ID, &created.Name, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return domain.Organization{}, fmt.Errorf("failed to create organization: %w", err)
	}
	return created, nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1`,
		id,
	)

	var org domain.Organization
	if err := row.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return domain.Organization{}, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, created_at, updated_at FROM organizations ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	organizations := []domain.Organization{}
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}

	return organizations, nil
}
