package hubdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/norbye/interesse/pkg/hubspot"
)

// Store performs row operations against one HubDB table. It keeps no state
// between calls: every workflow invocation rescans the table so the
// composite-key uniqueness check always sees a fresh, complete view.
type Store struct {
	client  *hubspot.Client
	tableID string
	columns ColumnMapping
	logger  *slog.Logger
}

// NewStore creates a Store for the given table.
func NewStore(client *hubspot.Client, tableID string, columns ColumnMapping, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		client:  client,
		tableID: tableID,
		columns: columns,
		logger:  logger.With("module", "hubdb_store"),
	}
}

// Columns returns the store's column mapping.
func (s *Store) Columns() ColumnMapping {
	return s.columns
}

// TableID returns the id of the table this store operates on.
func (s *Store) TableID() string {
	return s.tableID
}

func (s *Store) rowsURL() string {
	return fmt.Sprintf("%s/tables/%s/rows", s.client.HubDBBaseURL(), s.tableID)
}

// FetchAllRows returns every row of the table.
func (s *Store) FetchAllRows(ctx context.Context) ([]Row, error) {
	opContext := "fetchHubDBTableRows-" + s.tableID

	raw, err := s.client.Do(ctx, http.MethodGet, s.rowsURL(), nil, opContext)
	if err != nil {
		return nil, err
	}

	var response struct {
		Objects []Row `json:"objects"`
	}

	if raw != nil {
		err = json.Unmarshal(raw, &response)
		if err != nil {
			return nil, fmt.Errorf("failed to decode rows of table %s: %w", s.tableID, err)
		}
	}

	return response.Objects, nil
}

// FetchRow returns a single row by id.
func (s *Store) FetchRow(ctx context.Context, rowID string) (*Row, error) {
	opContext := fmt.Sprintf("fetchHubDBTableRow-%s-%s", s.tableID, rowID)

	raw, err := s.client.Do(ctx, http.MethodGet, s.rowsURL()+"/"+rowID, nil, opContext)
	if err != nil {
		return nil, err
	}

	var row Row

	err = json.Unmarshal(raw, &row)
	if err != nil {
		return nil, fmt.Errorf("failed to decode row %s: %w", rowID, err)
	}

	return &row, nil
}

// DeleteRow removes a row by id.
func (s *Store) DeleteRow(ctx context.Context, rowID string) error {
	opContext := fmt.Sprintf("deleteHubDBTableRow-%s-%s", s.tableID, rowID)

	_, err := s.client.Do(ctx, http.MethodDelete, s.rowsURL()+"/"+rowID, nil, opContext)

	return err
}

// FetchSchema returns the table's schema metadata.
func (s *Store) FetchSchema(ctx context.Context) (TableSchema, error) {
	opContext := "fetchHubDBTableSchema-" + s.tableID

	raw, err := s.client.Do(ctx, http.MethodGet, s.client.HubDBBaseURL()+"/tables/"+s.tableID, nil, opContext)
	if err != nil {
		return TableSchema{}, err
	}

	var schema TableSchema

	err = json.Unmarshal(raw, &schema)
	if err != nil {
		return TableSchema{}, fmt.Errorf("failed to decode schema of table %s: %w", s.tableID, err)
	}

	return schema, nil
}

// FetchTable returns the table's schema together with all of its rows.
func (s *Store) FetchTable(ctx context.Context) (*Table, error) {
	schema, err := s.FetchSchema(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.FetchAllRows(ctx)
	if err != nil {
		return nil, err
	}

	return &Table{Schema: schema, Rows: rows}, nil
}

// FindByCompositeKey scans rows for the one whose deal-id and email columns
// both equal the given values. Values are compared as strings; numeric
// column values are coerced before comparison. Rows missing either column
// never match. Returns nil when no row matches.
func (s *Store) FindByCompositeKey(rows []Row, dealID, userEmail string) *Row {
	for i := range rows {
		row := &rows[i]

		if row.Values == nil {
			continue
		}

		rowDealID, ok := valueAsString(row.Values[s.columns.DealID])
		if !ok {
			continue
		}

		rowEmail, ok := valueAsString(row.Values[s.columns.UserEmail])
		if !ok {
			continue
		}

		if rowDealID == dealID && rowEmail == userEmail {
			return row
		}
	}

	return nil
}

// Upsert writes one record: an update addressed by the existing row's id
// when existing is non-nil, otherwise a create.
func (s *Store) Upsert(ctx context.Context, values map[string]any, existing *Row) (*Row, error) {
	var (
		raw json.RawMessage
		err error
	)

	if existing != nil {
		opContext := fmt.Sprintf("updateHubDBTableRow-%s-%s", s.tableID, existing.ID)
		raw, err = s.client.Do(ctx, http.MethodPut, s.rowsURL()+"/"+existing.ID, map[string]any{"values": values}, opContext)
	} else {
		opContext := "createHubDBTableRow-" + s.tableID
		raw, err = s.client.Do(ctx, http.MethodPost, s.rowsURL(), map[string]any{"values": values}, opContext)
	}

	if err != nil {
		return nil, err
	}

	var row Row

	err = json.Unmarshal(raw, &row)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upserted row: %w", err)
	}

	return &row, nil
}

// Publish pushes the table's draft live so mutated rows become visible to
// consumers. Callers treat it as best-effort: the workflow never awaits it
// and never surfaces its failure.
func (s *Store) Publish(ctx context.Context) error {
	opContext := "publishHubDBTable-" + s.tableID

	requestURL := fmt.Sprintf("%s/hubdb/tables/%s/draft/publish", s.client.CMSBaseURL(), s.tableID)

	_, err := s.client.Do(ctx, http.MethodPost, requestURL, map[string]any{"includeForeignIds": true}, opContext)

	return err
}

func valueAsString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}

		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
