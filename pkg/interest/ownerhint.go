package interest

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// The deal-owner hint is supposed to be a plain owner id, but one upstream
// form builder serializes it as a quasi-JSON object with unquoted keys and
// values, e.g. {owner_id=123, owner_name=Kari}. The repair below is a legacy
// compatibility shim for that one producer.
var (
	legacyKeyPattern   = regexp.MustCompile(`(\w+)=`)
	legacyValuePattern = regexp.MustCompile(`:\s*([^",{}]+)`)
)

// ParseOwnerHint extracts an owner id from the deal_owner_id field. It
// accepts a plain id, a JSON object carrying owner_id, or the legacy
// unquoted-key object form. Returns the empty string when no id can be
// extracted.
func ParseOwnerHint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, `"`)

	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "{") {
		return raw
	}

	if id, ok := ownerIDFromJSON(raw); ok {
		return id
	}

	corrected := legacyKeyPattern.ReplaceAllString(raw, `"$1":`)
	corrected = legacyValuePattern.ReplaceAllString(corrected, `:"$1"`)

	if id, ok := ownerIDFromJSON(corrected); ok {
		return id
	}

	return ""
}

func ownerIDFromJSON(raw string) (string, bool) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()

	var object map[string]any

	err := decoder.Decode(&object)
	if err != nil {
		return "", false
	}

	switch id := object["owner_id"].(type) {
	case string:
		id = strings.TrimSpace(id)

		return id, id != ""
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}
