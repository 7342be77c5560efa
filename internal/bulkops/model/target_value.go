package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// TargetValue is the operation-specific payload of a request. Role, status
// and team operations carry a single value; permission operations carry a
// list. On the wire it is either a JSON string or a JSON array of strings.
type TargetValue struct {
	Value  string   `bson:"value,omitempty"`
	Values []string `bson:"values,omitempty"`
}

func StringValue(v string) TargetValue {
	return TargetValue{Value: v}
}

func ListValue(v ...string) TargetValue {
	return TargetValue{Values: v}
}

// Strings returns the payload as a list regardless of shape.
func (v TargetValue) Strings() []string {
	if len(v.Values) > 0 {
		return v.Values
	}
	if v.Value != "" {
		return []string{v.Value}
	}
	return nil
}

func (v TargetValue) IsZero() bool {
	return v.Value == "" && len(v.Values) == 0
}

func (v TargetValue) String() string {
	if len(v.Values) > 0 {
		return strings.Join(v.Values, ",")
	}
	return v.Value
}

func (v TargetValue) MarshalJSON() ([]byte, error) {
	if len(v.Values) > 0 {
		return json.Marshal(v.Values)
	}
	if v.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

func (v *TargetValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = TargetValue{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TargetValue{Value: s}
		return nil
	case data[0] == '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*v = TargetValue{Values: list}
		return nil
	default:
		return errors.New("target_value must be a string or a list of strings")
	}
}
