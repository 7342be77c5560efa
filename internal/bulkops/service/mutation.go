package service

import (
	"fmt"
	"strings"

	"bulkops/internal/bulkops/model"
)

// mutationPlan is the outcome of planMutation for one target.
type mutationPlan struct {
	OK      bool
	Patch   model.FieldPatch
	Message string
}

func rejected(format string, args ...interface{}) mutationPlan {
	return mutationPlan{Message: fmt.Sprintf(format, args...)}
}

// planMutation decides whether the operation applies to target and computes
// the field patch. Preview and Execute both classify targets through it.
func planMutation(req *model.BatchOperationRequest, target *model.TargetRecord) mutationPlan {
	value := req.TargetValue.Value

	if req.OperationType == model.OpDeactivate {
		if target.Status == model.StatusInactive {
			return rejected("no-op: already %s", model.StatusInactive)
		}
		return changed(model.FieldStatus, target.Status, model.StatusInactive)
	}

	// Only a status update may touch a deactivated user.
	if target.Status == model.StatusInactive && req.OperationType != model.OpStatusUpdate {
		return rejected("invalid state: target is %s", target.Status)
	}

	switch req.OperationType {
	case model.OpRoleChange:
		if target.Role == value {
			return rejected("no-op: already %s", value)
		}
		return changed(model.FieldRole, target.Role, value)

	case model.OpStatusUpdate:
		if target.Status == value {
			return rejected("no-op: already %s", value)
		}
		return changed(model.FieldStatus, target.Status, value)

	case model.OpTeamTransfer:
		if target.TeamID == value {
			return rejected("no-op: already in team %s", value)
		}
		return changed(model.FieldTeamID, target.TeamID, value)

	case model.OpPermissionGrant:
		held := toSet(target.Permissions)
		next := append([]string{}, target.Permissions...)
		var added []string
		for _, p := range req.TargetValue.Values {
			if !held[p] {
				next = append(next, p)
				added = append(added, p)
			}
		}
		if len(added) == 0 {
			return rejected("no-op: already has %s", strings.Join(req.TargetValue.Values, ", "))
		}
		return mutationPlan{
			OK:      true,
			Patch:   model.FieldPatch{model.FieldPermissions: next},
			Message: "granted " + strings.Join(added, ", "),
		}

	case model.OpPermissionRevoke:
		revoke := toSet(req.TargetValue.Values)
		next := make([]string, 0, len(target.Permissions))
		var removed []string
		for _, p := range target.Permissions {
			if revoke[p] {
				removed = append(removed, p)
				continue
			}
			next = append(next, p)
		}
		if len(removed) == 0 {
			return rejected("no-op: holds none of %s", strings.Join(req.TargetValue.Values, ", "))
		}
		return mutationPlan{
			OK:      true,
			Patch:   model.FieldPatch{model.FieldPermissions: next},
			Message: "revoked " + strings.Join(removed, ", "),
		}
	}

	return rejected("unsupported operation type %s", req.OperationType)
}

func changed(field, from, to string) mutationPlan {
	if from == "" {
		from = "none"
	}
	return mutationPlan{
		OK:      true,
		Patch:   model.FieldPatch{field: to},
		Message: fmt.Sprintf("%s: %s -> %s", field, from, to),
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
