// Package hubdb implements the HubDB-backed record store the interest
// workflow writes to: full-table row scans, composite-key lookup,
// create-or-update upserts and draft publishing, with the row schema
// expressed as a typed column mapping instead of bare column-id strings.
package hubdb

// Row is one row of a HubDB table. Values are keyed by the table's
// positional column ids, which HubDB serves as strings.
type Row struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

// TableColumn describes one column of a table schema.
type TableColumn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchema is the metadata of a HubDB table.
type TableSchema struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Columns []TableColumn `json:"columns"`
}

// Table bundles a table's schema with its rows.
type Table struct {
	Schema TableSchema
	Rows   []Row
}
