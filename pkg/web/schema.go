package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// intentSchema is the structural contract of the webhook payload. Field
// presence is checked again by the validator and the workflow; the schema
// catches type mismatches before decoding.
const intentSchema = `{
  "type": "object",
  "properties": {
    "deal_id": {"type": ["string", "number"]},
    "deal_name": {"type": "string"},
    "user_email": {"type": "string"},
    "user_name": {"type": "string"},
    "flag": {"type": "boolean"},
    "action_taken": {"type": "string"},
    "deal_owner_id": {"type": "string"}
  },
  "required": ["deal_id", "user_email", "flag"]
}`

var intentSchemaLoader = gojsonschema.NewStringLoader(intentSchema)

// ErrPayloadInvalid is returned when the webhook payload does not match the
// intent schema.
var ErrPayloadInvalid = errors.New("invalid webhook payload")

func validateIntentDocument(body []byte) error {
	result, err := gojsonschema.Validate(intentSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPayloadInvalid, err.Error())
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		details = append(details, resultError.String())
	}

	return fmt.Errorf("%w: %s", ErrPayloadInvalid, strings.Join(details, "; "))
}
