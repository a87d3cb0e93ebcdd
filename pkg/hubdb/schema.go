package hubdb

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ColumnMapping binds the semantic fields of an interest record to the
// positional column ids of the HubDB table. The ids are a fixed external
// contract with the remote schema and must match it exactly.
type ColumnMapping struct {
	DealID    string `yaml:"deal_id"`
	DealName  string `yaml:"deal_name"`
	UserEmail string `yaml:"user_email"`
	UserName  string `yaml:"user_name"`
	Flag      string `yaml:"flag"`
	Timestamp string `yaml:"timestamp"`
}

// DefaultColumnMapping returns the column ids of the production interest
// table.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		DealID:    "2",
		DealName:  "9",
		UserEmail: "3",
		UserName:  "10",
		Flag:      "8",
		Timestamp: "11",
	}
}

// ErrIncompleteColumnMapping is returned when a mapping leaves a field
// without a column id.
var ErrIncompleteColumnMapping = errors.New("column mapping is incomplete")

// LoadColumnMapping reads a column mapping from a YAML file.
func LoadColumnMapping(path string) (ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ColumnMapping{}, fmt.Errorf("failed to read column mapping file %s: %w", path, err)
	}

	var mapping ColumnMapping

	err = yaml.Unmarshal(data, &mapping)
	if err != nil {
		return ColumnMapping{}, fmt.Errorf("failed to parse column mapping file %s: %w", path, err)
	}

	err = mapping.Validate()
	if err != nil {
		return ColumnMapping{}, err
	}

	return mapping, nil
}

// Validate checks that every semantic field has a column id.
func (m ColumnMapping) Validate() error {
	fields := map[string]string{
		"deal_id":    m.DealID,
		"deal_name":  m.DealName,
		"user_email": m.UserEmail,
		"user_name":  m.UserName,
		"flag":       m.Flag,
		"timestamp":  m.Timestamp,
	}

	for name, id := range fields {
		if id == "" {
			return fmt.Errorf("%w: missing column id for %s", ErrIncompleteColumnMapping, name)
		}
	}

	return nil
}

// ValidateAgainstTable checks every mapped column id against the live table
// schema, catching a drifted or misconfigured mapping at startup.
func (m ColumnMapping) ValidateAgainstTable(schema TableSchema) error {
	known := make(map[string]bool, len(schema.Columns))

	for _, column := range schema.Columns {
		known[column.ID] = true
	}

	for _, id := range []string{m.DealID, m.DealName, m.UserEmail, m.UserName, m.Flag, m.Timestamp} {
		if !known[id] {
			return fmt.Errorf("column id %q is not present in table %s", id, schema.ID)
		}
	}

	return nil
}

// RecordValues builds the row values map for one interest record. The flag
// is stored as 0/1 and the timestamp as epoch milliseconds, matching the
// remote column types.
func (m ColumnMapping) RecordValues(dealID, dealName, userEmail, userName string, flag bool, timestamp time.Time) map[string]any {
	flagValue := 0
	if flag {
		flagValue = 1
	}

	return map[string]any{
		m.DealID:    dealID,
		m.DealName:  dealName,
		m.UserEmail: userEmail,
		m.UserName:  userName,
		m.Flag:      flagValue,
		m.Timestamp: timestamp.UnixMilli(),
	}
}
