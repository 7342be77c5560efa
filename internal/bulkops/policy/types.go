package policy

// Engine actions
const (
	ActionPreview = "preview"
	ActionExecute = "execute"
	ActionUndo    = "undo"
	ActionRead    = "read"
)

// Wildcard grants every permission.
const Wildcard = "*"

// ActionPolicy maps an action to the permission it requires. Operation types
// listed in ByOperationType require their own permission instead of Default.
type ActionPolicy struct {
	Default         string            `json:"default"`
	ByOperationType map[string]string `json:"by_operation_type,omitempty"`
}

// RouteConfig binds an API route to an action. AlsoRequires lists further
// actions the caller must hold for the same operation type, e.g. undo of a
// RoleChange also needs the RoleChange execute permission.
type RouteConfig struct {
	Method              string   `json:"method"`
	Path                string   `json:"path"`
	Action              string   `json:"action"`
	OperationTypeSource string   `json:"operation_type_source,omitempty"` // e.g. "body.operation_type", "ledger.operation_type"
	AlsoRequires        []string `json:"also_requires,omitempty"`
}

// Key is the lookup key used by the permission middleware.
func (r *RouteConfig) Key() string {
	return r.Method + ":" + r.Path
}

// Document is the embedded policy file.
type Document struct {
	Actions map[string]*ActionPolicy `json:"actions"`
	Roles   map[string][]string      `json:"roles"`
	Routes  []*RouteConfig           `json:"routes"`
}
