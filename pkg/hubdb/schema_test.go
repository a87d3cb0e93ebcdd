package hubdb_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/norbye/interesse/pkg/hubdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultColumnMapping(t *testing.T) {
	t.Parallel()

	mapping := hubdb.DefaultColumnMapping()

	require.NoError(t, mapping.Validate())
	assert.Equal(t, "2", mapping.DealID)
	assert.Equal(t, "3", mapping.UserEmail)
	assert.Equal(t, "8", mapping.Flag)
}

func TestColumnMapping_ValidateRejectsMissingField(t *testing.T) {
	t.Parallel()

	mapping := hubdb.DefaultColumnMapping()
	mapping.Timestamp = ""

	err := mapping.Validate()
	require.ErrorIs(t, err, hubdb.ErrIncompleteColumnMapping)
}

func TestLoadColumnMapping(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "columns.yaml")

	content := `deal_id: "12"
deal_name: "13"
user_email: "14"
user_name: "15"
flag: "16"
timestamp: "17"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	mapping, err := hubdb.LoadColumnMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "12", mapping.DealID)
	assert.Equal(t, "17", mapping.Timestamp)
}

func TestLoadColumnMapping_IncompleteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`deal_id: "12"`), 0o600))

	_, err := hubdb.LoadColumnMapping(path)
	require.ErrorIs(t, err, hubdb.ErrIncompleteColumnMapping)
}

func TestColumnMapping_RecordValues(t *testing.T) {
	t.Parallel()

	mapping := hubdb.DefaultColumnMapping()
	when := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	values := mapping.RecordValues("100", "Storgata 1", "kari@norbye.no", "Kari Norman", true, when)

	assert.Equal(t, "100", values["2"])
	assert.Equal(t, "Storgata 1", values["9"])
	assert.Equal(t, "kari@norbye.no", values["3"])
	assert.Equal(t, "Kari Norman", values["10"])
	assert.Equal(t, 1, values["8"])
	assert.Equal(t, when.UnixMilli(), values["11"])

	values = mapping.RecordValues("100", "", "kari@norbye.no", "", false, when)
	assert.Equal(t, 0, values["8"])
}

func TestColumnMapping_ValidateAgainstTable(t *testing.T) {
	t.Parallel()

	mapping := hubdb.DefaultColumnMapping()

	schema := hubdb.TableSchema{
		ID: "561600",
		Columns: []hubdb.TableColumn{
			{ID: "2"}, {ID: "3"}, {ID: "8"}, {ID: "9"}, {ID: "10"}, {ID: "11"},
		},
	}

	require.NoError(t, mapping.ValidateAgainstTable(schema))

	schema.Columns = schema.Columns[:3]
	require.Error(t, mapping.ValidateAgainstTable(schema))
}
