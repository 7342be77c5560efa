package model

// OperationType is the closed set of bulk mutations the engine understands.
type OperationType string

const (
	OpRoleChange       OperationType = "RoleChange"
	OpStatusUpdate     OperationType = "StatusUpdate"
	OpTeamTransfer     OperationType = "TeamTransfer"
	OpPermissionGrant  OperationType = "PermissionGrant"
	OpPermissionRevoke OperationType = "PermissionRevoke"
	OpDeactivate       OperationType = "Deactivate"
)

// AllOperationTypes lists every supported operation in a stable order.
var AllOperationTypes = []OperationType{
	OpRoleChange,
	OpStatusUpdate,
	OpTeamTransfer,
	OpPermissionGrant,
	OpPermissionRevoke,
	OpDeactivate,
}

func (t OperationType) Valid() bool {
	for _, known := range AllOperationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Roles, highest privilege first
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleTeamLead   = "TEAM_LEAD"
	RoleTeamMember = "TEAM_MEMBER"
	RoleStaff      = "STAFF"
	RoleClient     = "CLIENT"
)

// RoleRank orders roles; a lower rank is more privileged.
var RoleRank = map[string]int{
	RoleSuperAdmin: 0,
	RoleAdmin:      1,
	RoleTeamLead:   2,
	RoleTeamMember: 3,
	RoleStaff:      4,
	RoleClient:     5,
}

// User statuses
const (
	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusSuspended = "SUSPENDED"
)

var AllowedStatuses = map[string]bool{
	StatusActive:    true,
	StatusInactive:  true,
	StatusSuspended: true,
}

// Mutable target fields. Patches and state snapshots are keyed by these names.
const (
	FieldRole        = "role"
	FieldStatus      = "status"
	FieldTeamID      = "team_id"
	FieldPermissions = "permissions"
)

// RecordStatus is the outcome of an executed batch.
type RecordStatus string

const (
	RecordSuccess  RecordStatus = "Success"
	RecordPartial  RecordStatus = "Partial"
	RecordFailed   RecordStatus = "Failed"
	RecordReversed RecordStatus = "Reversed"
)

// TargetStatus is the outcome for one target inside a batch.
type TargetStatus string

const (
	TargetSuccess TargetStatus = "Success"
	TargetFailed  TargetStatus = "Failed"
)

const PreviewStatus = "preview"

// Audit actions
const (
	AuditActionExecute = "bulk_operation.execute"
	AuditActionUndo    = "bulk_operation.undo"
)

// Notification event types
const (
	EventOperationExecuted = "bulk_operation.executed"
	EventOperationReversed = "bulk_operation.reversed"
)
