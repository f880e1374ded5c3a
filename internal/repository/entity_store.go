package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// entityStore implements EntityStore on top of pgx. Statements are built
// from sanitized identifiers; the import service only ever passes table
// and column names that originate from its static registry.
type entityStore struct {
	pool *pgxpool.Pool
}

// NewEntityStore wires an entity store backed by pgxpool.
func NewEntityStore(pool *pgxpool.Pool) EntityStore {
	return &entityStore{pool: pool}
}

func (s *entityStore) Exists(ctx context.Context, table string, organizationID, id uuid.UUID) (bool, error) {
	if s.pool == nil {
		return false, fmt.Errorf("entity store not initialized")
	}

	query := fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE organization_id = $1 AND id = $2)`,
		pgx.Identifier{table}.Sanitize(),
	)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, organizationID, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

func (s *entityStore) Insert(ctx context.Context, table string, organizationID, id uuid.UUID, values map[string]any) error {
	if s.pool == nil {
		return fmt.Errorf("entity store not initialized")
	}

	columns := []string{"id", "organization_id"}
	args := []any{id, organizationID}
	for _, column := range sortedColumns(values) {
		columns = append(columns, column)
		args = append(args, values[column])
	}

	placeholders := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, column := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = pgx.Identifier{column}.Sanitize()
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (s *entityStore) UpdateByID(ctx context.Context, table string, organizationID, id uuid.UUID, values map[string]any) (bool, error) {
	if s.pool == nil {
		return false, fmt.Errorf("entity store not initialized")
	}

	assignments := make([]string, 0, len(values)+1)
	args := []any{organizationID, id}
	for _, column := range sortedColumns(values) {
		args = append(args, values[column])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pgx.Identifier{column}.Sanitize(), len(args)))
	}
	assignments = append(assignments, "updated_at = now()")

	query := fmt.Sprintf(
		`UPDATE %s SET %s WHERE organization_id = $1 AND id = $2`,
		pgx.Identifier{table}.Sanitize(),
		strings.Join(assignments, ", "),
	)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func sortedColumns(values map[string]any) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
