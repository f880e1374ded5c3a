package importer

import (
	"testing"

	"github.com/google/uuid"

	"github.com/portaprosoftware/portapro-import/internal/csvparse"
)

func customerSchema(t *testing.T) Schema {
	t.Helper()
	cfg, ok := Lookup("customers")
	if !ok {
		t.Fatalf("customers must be a supported entity type")
	}
	return cfg.Schema
}

func TestValidateHappyPath(t *testing.T) {
	schema := customerSchema(t)

	values, errs := schema.Validate(csvparse.Record{
		"name":    "Acme Co",
		"email":   "a@x.com",
		"balance": "100.5",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if values["name"] != "Acme Co" {
		t.Fatalf("unexpected name: %v", values["name"])
	}
	if got, ok := values["balance"].(float64); !ok || got != 100.5 {
		t.Fatalf("expected balance coerced to float64 100.5, got %v", values["balance"])
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	schema := customerSchema(t)

	values, errs := schema.Validate(csvparse.Record{
		"name":    "",
		"balance": "not-a-number",
		"id":      "not-a-uuid",
		"color":   "blue",
	})
	if values != nil {
		t.Fatalf("expected nil values when the row is invalid")
	}
	if len(errs) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(errs), errs)
	}

	byField := map[string]string{}
	for _, fe := range errs {
		byField[fe.Field] = fe.Message
	}
	for _, field := range []string{"name", "balance", "id", "color"} {
		if byField[field] == "" {
			t.Fatalf("expected an error for field %q, got %v", field, byField)
		}
	}
}

func TestValidateOmitsEmptyOptionalFields(t *testing.T) {
	schema := customerSchema(t)

	values, errs := schema.Validate(csvparse.Record{
		"name":  "Acme Co",
		"email": "",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, present := values["email"]; present {
		t.Fatalf("empty optional field should be omitted from the entity")
	}
}

func TestValidateUUIDField(t *testing.T) {
	schema := customerSchema(t)

	id := uuid.NewString()
	values, errs := schema.Validate(csvparse.Record{"name": "Acme", "id": id})
	if len(errs) != 0 {
		t.Fatalf("valid uuid rejected: %v", errs)
	}
	if values["id"] != id {
		t.Fatalf("uuid field should pass through as string, got %v", values["id"])
	}

	_, errs = schema.Validate(csvparse.Record{"name": "Acme", "id": "1234"})
	if len(errs) != 1 || errs[0].Field != "id" {
		t.Fatalf("expected single id error, got %v", errs)
	}
}

func TestValidateRejectsNonFiniteNumbers(t *testing.T) {
	schema := customerSchema(t)

	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		_, errs := schema.Validate(csvparse.Record{"name": "Acme", "balance": raw})
		if len(errs) != 1 || errs[0].Field != "balance" {
			t.Fatalf("expected %q to be rejected as a number, got %v", raw, errs)
		}
	}
}

func TestOrganizationIDNeverAllowed(t *testing.T) {
	for _, entityType := range SupportedTypes() {
		cfg, _ := Lookup(entityType)
		if cfg.Schema.Allowed["organization_id"] {
			t.Fatalf("%s schema must not accept organization_id from CSV input", entityType)
		}
	}
}
