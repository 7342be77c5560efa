package model

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldPatch is a field-level change set keyed by the Field* constants.
// It doubles as the prior/new state snapshot stored per target, so an undo
// restores only the fields a batch touched.
type FieldPatch map[string]interface{}

// Fields returns the patched field names in sorted order.
func (p FieldPatch) Fields() []string {
	fields := make([]string, 0, len(p))
	for k := range p {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Snapshot captures the current values of the given fields.
func (r *TargetRecord) Snapshot(fields []string) FieldPatch {
	snap := make(FieldPatch, len(fields))
	for _, f := range fields {
		switch f {
		case FieldRole:
			snap[f] = r.Role
		case FieldStatus:
			snap[f] = r.Status
		case FieldTeamID:
			snap[f] = r.TeamID
		case FieldPermissions:
			snap[f] = append([]string{}, r.Permissions...)
		}
	}
	return snap
}

// Apply writes the patch onto the record. Unknown fields are rejected.
func (r *TargetRecord) Apply(p FieldPatch) error {
	for field, v := range p {
		switch field {
		case FieldRole, FieldStatus, FieldTeamID:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field %s: expected string, got %T", field, v)
			}
			switch field {
			case FieldRole:
				r.Role = s
			case FieldStatus:
				r.Status = s
			case FieldTeamID:
				r.TeamID = s
			}
		case FieldPermissions:
			perms, err := ToStrings(v)
			if err != nil {
				return fmt.Errorf("field %s: %w", field, err)
			}
			r.Permissions = perms
		default:
			return fmt.Errorf("unknown field %q", field)
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *TargetRecord) Clone() *TargetRecord {
	c := *r
	c.Permissions = append([]string(nil), r.Permissions...)
	return &c
}

// ToStrings normalises the list shapes produced by JSON and BSON decoding.
func ToStrings(v interface{}) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, list...), nil
	case []interface{}:
		return interfacesToStrings(list)
	case primitive.A:
		return interfacesToStrings(list)
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}

func interfacesToStrings(list []interface{}) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
