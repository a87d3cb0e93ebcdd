// Package interest implements the deal-interest workflow: validating the
// webhook intent and driving the HubDB record upsert, table publish, owner
// resolution, follow-up task and CRM associations as one idempotent
// transition.
package interest

import (
	"encoding/json"
	"fmt"
)

// Action is a workflow transition requested by the webhook. The wire values
// are the Norwegian action labels the site sends.
type Action string

const (
	// ActionRegister records interest in a deal ("Meld interesse").
	ActionRegister Action = "Meld interesse"
	// ActionWithdraw retracts interest in a deal ("Avmeld interesse").
	ActionWithdraw Action = "Avmeld interesse"
)

// StringOrNumber decodes a JSON string or number into its string form. Deal
// ids arrive as either, and every comparison downstream is string-based.
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string

		err := json.Unmarshal(data, &str)
		if err != nil {
			return err
		}

		*s = StringOrNumber(str)

		return nil
	}

	var num json.Number

	err := json.Unmarshal(data, &num)
	if err != nil {
		return fmt.Errorf("value is neither string nor number: %w", err)
	}

	*s = StringOrNumber(num.String())

	return nil
}

// Intent is the immutable input to one workflow invocation, as parsed from
// the webhook body. Flag is a pointer so a missing field is distinguishable
// from an explicit false.
type Intent struct {
	DealID      StringOrNumber `json:"deal_id"       validate:"required"`
	DealName    string         `json:"deal_name"`
	UserEmail   string         `json:"user_email"    validate:"required,email"`
	UserName    string         `json:"user_name"`
	Flag        *bool          `json:"flag"          validate:"required"`
	ActionTaken string         `json:"action_taken"  validate:"required"`
	DealOwnerID string         `json:"deal_owner_id"`
}

// Action maps the wire action label to a workflow transition.
func (i Intent) Action() (Action, error) {
	switch Action(i.ActionTaken) {
	case ActionRegister:
		return ActionRegister, nil
	case ActionWithdraw:
		return ActionWithdraw, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrActionNotAllowed, i.ActionTaken)
	}
}

// FlagValue returns the interest flag, treating a missing field as false.
// Validation rejects missing flags before the workflow reads this.
func (i Intent) FlagValue() bool {
	return i.Flag != nil && *i.Flag
}
