package importer

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/portaprosoftware/portapro-import/internal/csvparse"
)

// ForeignKey declares that a field must reference an existing row in
// another table within the same organization. The existence check itself
// is performed by the import service, not the validator.
type ForeignKey struct {
	Field   string
	Table   string
	Message string
}

// Schema is the declarative validation configuration for one entity type.
// Fields outside Allowed are rejected, Required fields must be non-empty,
// UUID fields must parse as UUIDs, and Numeric fields are coerced to
// float64 in the validated output.
type Schema struct {
	Allowed     map[string]bool
	Required    []string
	UUID        map[string]bool
	Numeric     map[string]bool
	ForeignKeys []ForeignKey
}

// FieldError describes a validation failure attributable to one field of
// one row.
type FieldError struct {
	Field   string
	Message string
}

// Validate checks a single raw record against the schema. All applicable
// field errors are collected and returned together so the caller gets a
// complete picture of a bad row in one pass. On success the returned map
// holds the typed entity values; empty optional fields are omitted and
// numeric fields are converted to float64. Validate performs no I/O.
func (s Schema) Validate(rec csvparse.Record) (map[string]any, []FieldError) {
	var errs []FieldError

	keys := make([]string, 0, len(rec))
	for key := range rec {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !s.Allowed[key] {
			errs = append(errs, FieldError{
				Field:   key,
				Message: fmt.Sprintf("unknown field %q", key),
			})
		}
	}

	for _, field := range s.Required {
		if rec[field] == "" {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("%s is required", field),
			})
		}
	}

	values := make(map[string]any, len(rec))
	for _, key := range keys {
		if !s.Allowed[key] {
			continue
		}
		raw := rec[key]
		if raw == "" {
			continue
		}

		switch {
		case s.UUID[key]:
			if _, err := uuid.Parse(raw); err != nil {
				errs = append(errs, FieldError{
					Field:   key,
					Message: fmt.Sprintf("%s must be a valid UUID", key),
				})
				continue
			}
			values[key] = raw
		case s.Numeric[key]:
			number, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
				errs = append(errs, FieldError{
					Field:   key,
					Message: fmt.Sprintf("%s must be a number", key),
				})
				continue
			}
			values[key] = number
		default:
			values[key] = raw
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}
