package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/portaprosoftware/portapro-import/internal/csvparse"
	"github.com/portaprosoftware/portapro-import/internal/domain"
)

type storedRow struct {
	table  string
	orgID  uuid.UUID
	id     uuid.UUID
	values map[string]any
}

type stubStore struct {
	// existing maps "table/orgID/id" to presence for Exists and UpdateByID.
	existing  map[string]bool
	inserted  []storedRow
	updated   []storedRow
	insertErr error
	calls     int
}

func storeKey(table string, orgID, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", table, orgID, id)
}

func (s *stubStore) Exists(ctx context.Context, table string, orgID, id uuid.UUID) (bool, error) {
	s.calls++
	return s.existing[storeKey(table, orgID, id)], nil
}

func (s *stubStore) Insert(ctx context.Context, table string, orgID, id uuid.UUID, values map[string]any) error {
	s.calls++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, storedRow{table: table, orgID: orgID, id: id, values: values})
	return nil
}

func (s *stubStore) UpdateByID(ctx context.Context, table string, orgID, id uuid.UUID, values map[string]any) (bool, error) {
	s.calls++
	if !s.existing[storeKey(table, orgID, id)] {
		return false, nil
	}
	s.updated = append(s.updated, storedRow{table: table, orgID: orgID, id: id, values: values})
	return true, nil
}

type stubLogRepo struct {
	entries []domain.ImportLogEntry
}

func (s *stubLogRepo) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogRepo) List(ctx context.Context, organizationID uuid.UUID, entityType string, limit, offset int) ([]domain.ImportLogEntry, error) {
	return s.entries, nil
}

func TestRunRequiresOrganization(t *testing.T) {
	store := &stubStore{}
	service := NewService(store, nil, nil)

	_, err := service.Run(context.Background(), Request{
		Type: "customers",
		Rows: []csvparse.Record{{"name": "Acme"}},
	})
	if err == nil {
		t.Fatalf("expected hard failure without an organization id")
	}
	if store.calls != 0 {
		t.Fatalf("store must not be touched without an organization id, saw %d calls", store.calls)
	}
}

func TestRunRejectsUnknownEntityType(t *testing.T) {
	store := &stubStore{}
	service := NewService(store, nil, nil)

	_, err := service.Run(context.Background(), Request{
		Type:  "gadgets",
		OrgID: uuid.New(),
		Rows:  []csvparse.Record{{"name": "x"}},
	})
	if err == nil {
		t.Fatalf("expected error for unsupported entity type")
	}
	if store.calls != 0 {
		t.Fatalf("store must not be touched for an unsupported type")
	}
}

func TestRunPartialFailureAccounting(t *testing.T) {
	orgID := uuid.New()
	store := &stubStore{}
	logs := &stubLogRepo{}
	service := NewService(store, logs, nil)

	rows := make([]csvparse.Record, 10)
	for i := range rows {
		rows[i] = csvparse.Record{"name": fmt.Sprintf("Customer %d", i)}
	}
	// Rows at index 2 and 6 carry an unknown field.
	rows[2]["widget"] = "x"
	rows[6]["widget"] = "y"

	result, err := service.Run(context.Background(), Request{
		Type:  "customers",
		OrgID: orgID,
		Rows:  rows,
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if result.OK {
		t.Fatalf("expected ok=false with failed rows")
	}
	if result.TotalRows != 10 || result.SuccessRows != 8 || result.FailedRows != 2 {
		t.Fatalf("unexpected tally: %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(result.Errors))
	}
	if result.Errors[0].RowNumber != 4 || result.Errors[1].RowNumber != 8 {
		t.Fatalf("row numbers must account for the header line, got %d and %d",
			result.Errors[0].RowNumber, result.Errors[1].RowNumber)
	}
	if len(logs.entries) != 2 {
		t.Fatalf("expected row failures to be recorded, got %d entries", len(logs.entries))
	}
	if len(store.inserted) != 8 {
		t.Fatalf("expected 8 inserts, got %d", len(store.inserted))
	}
}

func TestRunRequiredFieldScenario(t *testing.T) {
	orgID := uuid.New()
	store := &stubStore{}
	service := NewService(store, nil, nil)

	result, err := service.Run(context.Background(), Request{
		Type:  "customers",
		OrgID: orgID,
		Rows: []csvparse.Record{
			{"name": "Acme Co", "email": "a@x.com", "balance": "100"},
			{"name": "", "email": "b@x.com", "balance": "50"},
		},
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if result.TotalRows != 2 || result.SuccessRows != 1 || result.FailedRows != 1 {
		t.Fatalf("unexpected tally: %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	re := result.Errors[0]
	if re.RowNumber != 3 {
		t.Fatalf("expected error on source row 3, got %d", re.RowNumber)
	}
	if re.Field == nil || *re.Field != "name" {
		t.Fatalf("expected error attributed to the name field, got %v", re.Field)
	}
}

func TestRunTenantIsolationOnForeignKeys(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()
	customerID := uuid.New()

	store := &stubStore{existing: map[string]bool{
		// The referenced customer exists only under org B.
		storeKey("customers", orgB, customerID): true,
	}}
	service := NewService(store, nil, nil)

	result, err := service.Run(context.Background(), Request{
		Type:  "jobs",
		OrgID: orgA,
		Rows: []csvparse.Record{
			{"title": "Deliver units", "customer_id": customerID.String()},
		},
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if result.FailedRows != 1 || result.SuccessRows != 0 {
		t.Fatalf("cross-tenant reference must fail the row: %+v", result)
	}
	if len(store.inserted) != 0 || len(store.updated) != 0 {
		t.Fatalf("cross-tenant reference must not persist anything")
	}
	if result.Errors[0].Field != nil {
		t.Fatalf("foreign-key failures are row-level errors, got field %v", *result.Errors[0].Field)
	}
}

func TestRunInsertVersusUpdate(t *testing.T) {
	orgID := uuid.New()
	existingID := uuid.New()

	store := &stubStore{existing: map[string]bool{
		storeKey("customers", orgID, existingID): true,
	}}
	service := NewService(store, nil, nil)

	result, err := service.Run(context.Background(), Request{
		Type:  "customers",
		OrgID: orgID,
		Rows: []csvparse.Record{
			{"id": existingID.String(), "name": "Acme Renamed"},
			{"name": "Brand New Co"},
		},
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if !result.OK || result.SuccessRows != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.updated) != 1 || store.updated[0].id != existingID {
		t.Fatalf("expected one update by id, got %+v", store.updated)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.inserted))
	}
	if store.inserted[0].id == uuid.Nil {
		t.Fatalf("insert must carry a generated id")
	}
	if _, present := store.updated[0].values["id"]; present {
		t.Fatalf("id must not appear among updated column values")
	}
}

func TestRunUpdateTargetNotFound(t *testing.T) {
	orgID := uuid.New()
	store := &stubStore{}
	service := NewService(store, nil, nil)

	missing := uuid.New()
	result, err := service.Run(context.Background(), Request{
		Type:  "customers",
		OrgID: orgID,
		Rows: []csvparse.Record{
			{"id": missing.String(), "name": "Ghost"},
		},
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if result.FailedRows != 1 {
		t.Fatalf("update of a missing id must be a row error: %+v", result)
	}
	if result.Errors[0].Field != nil {
		t.Fatalf("update-not-found is a row-level error")
	}
}

func TestRunPersistenceErrorIsRowLevel(t *testing.T) {
	orgID := uuid.New()
	store := &stubStore{insertErr: errors.New("connection reset")}
	logs := &stubLogRepo{}
	service := NewService(store, logs, nil)

	result, err := service.Run(context.Background(), Request{
		Type:  "customers",
		OrgID: orgID,
		Rows: []csvparse.Record{
			{"name": "First"},
			{"name": "Second"},
		},
	})
	if err != nil {
		t.Fatalf("persistence failures must not abort the batch: %v", err)
	}

	if result.FailedRows != 2 || result.SuccessRows != 0 {
		t.Fatalf("unexpected tally: %+v", result)
	}
	for _, re := range result.Errors {
		if re.Message == "" {
			t.Fatalf("row error must carry the underlying message")
		}
	}
	if len(logs.entries) != 2 {
		t.Fatalf("expected failures to be logged, got %d", len(logs.entries))
	}
}

func TestRunOrganizationIDNeverFromRow(t *testing.T) {
	orgID := uuid.New()
	store := &stubStore{}
	service := NewService(store, nil, nil)

	result, err := service.Run(context.Background(), Request{
		Type:  "customers",
		OrgID: orgID,
		Rows: []csvparse.Record{
			{"name": "Acme", "organization_id": uuid.NewString()},
		},
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	// organization_id is not an allowed column, so the row fails
	// validation rather than smuggling a tenant in.
	if result.FailedRows != 1 {
		t.Fatalf("organization_id from CSV must be rejected: %+v", result)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("nothing may be persisted for the rejected row")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	orgID := uuid.New()
	store := &stubStore{}
	service := NewService(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Run(ctx, Request{
		Type:  "customers",
		OrgID: orgID,
		Rows:  []csvparse.Record{{"name": "Acme"}},
	})
	if err == nil {
		t.Fatalf("expected cancellation to abort the batch")
	}
	if store.calls != 0 {
		t.Fatalf("cancelled batch must not touch the store")
	}
}
