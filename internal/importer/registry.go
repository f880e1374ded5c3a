package importer

import "sort"

// EntityConfig binds an importable entity type to its validation schema
// and its tenant-scoped table.
type EntityConfig struct {
	Schema Schema
	Table  string
}

// registry is the closed set of entity types the import API supports.
// Table and column identifiers only ever come from this map, never from
// request data. organization_id is deliberately absent from every Allowed
// set: the tenant is always injected from the authenticated request.
var registry = map[string]EntityConfig{
	"customers": {
		Table: "customers",
		Schema: Schema{
			Allowed: map[string]bool{
				"id": true, "name": true, "email": true,
				"phone": true, "balance": true, "notes": true,
			},
			Required: []string{"name"},
			UUID:     map[string]bool{"id": true},
			Numeric:  map[string]bool{"balance": true},
		},
	},
	"jobs": {
		Table: "jobs",
		Schema: Schema{
			Allowed: map[string]bool{
				"id": true, "customer_id": true, "title": true,
				"description": true, "status": true, "amount": true,
			},
			Required: []string{"title", "customer_id"},
			UUID:     map[string]bool{"id": true, "customer_id": true},
			Numeric:  map[string]bool{"amount": true},
			ForeignKeys: []ForeignKey{
				{Field: "customer_id", Table: "customers", Message: "customer_id does not match a customer in this organization"},
			},
		},
	},
	"invoices": {
		Table: "invoices",
		Schema: Schema{
			Allowed: map[string]bool{
				"id": true, "customer_id": true, "job_id": true,
				"number": true, "amount": true, "status": true,
			},
			Required: []string{"number", "customer_id"},
			UUID:     map[string]bool{"id": true, "customer_id": true, "job_id": true},
			Numeric:  map[string]bool{"amount": true},
			ForeignKeys: []ForeignKey{
				{Field: "customer_id", Table: "customers", Message: "customer_id does not match a customer in this organization"},
				{Field: "job_id", Table: "jobs", Message: "job_id does not match a job in this organization"},
			},
		},
	},
}

// Lookup resolves an entity type string to its configuration.
func Lookup(entityType string) (EntityConfig, bool) {
	cfg, ok := registry[entityType]
	return cfg, ok
}

// SupportedTypes lists the importable entity types in stable order.
func SupportedTypes() []string {
	types := make([]string, 0, len(registry))
	for name := range registry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
