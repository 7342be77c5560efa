package policy

import (
	"fmt"
	"sort"
	"strings"

	"bulkops/internal/bulkops/model"
)

// Engine answers whether a role may perform an engine action.
type Engine struct {
	actions  map[string]*ActionPolicy
	rolePerm map[string]map[string]bool
	routes   map[string]*RouteConfig
}

// NewEngine builds an engine from the embedded policy file.
func NewEngine() (*Engine, error) {
	doc, err := NewLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load bulk operation policy: %w", err)
	}
	return NewEngineFromDocument(doc), nil
}

func NewEngineFromDocument(doc *Document) *Engine {
	e := &Engine{
		actions:  doc.Actions,
		rolePerm: make(map[string]map[string]bool, len(doc.Roles)),
		routes:   make(map[string]*RouteConfig, len(doc.Routes)),
	}
	for role, perms := range doc.Roles {
		set := make(map[string]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		e.rolePerm[strings.ToUpper(role)] = set
	}
	for _, r := range doc.Routes {
		e.routes[r.Key()] = r
	}
	return e
}

// RequiredPermission resolves the permission an action needs for an
// operation type. opType may be empty for actions that do not depend on it.
func (e *Engine) RequiredPermission(action string, opType model.OperationType) (string, error) {
	policy, ok := e.actions[action]
	if !ok {
		return "", fmt.Errorf("unknown action: %s", action)
	}
	if opType != "" {
		if perm, ok := policy.ByOperationType[string(opType)]; ok {
			return perm, nil
		}
	}
	return policy.Default, nil
}

// CheckPermission reports whether role grants action for opType.
// An unknown action or role is denied.
func (e *Engine) CheckPermission(role, action string, opType model.OperationType) bool {
	perm, err := e.RequiredPermission(action, opType)
	if err != nil {
		return false
	}
	perms, ok := e.rolePerm[strings.ToUpper(role)]
	if !ok {
		return false
	}
	return perms[Wildcard] || perms[perm]
}

// Route returns the configuration for METHOD:PATH, or nil.
func (e *Engine) Route(method, path string) *RouteConfig {
	return e.routes[method+":"+path]
}

// RolesWithPermission lists the roles granting perm, sorted.
func (e *Engine) RolesWithPermission(perm string) []string {
	var roles []string
	for role, perms := range e.rolePerm {
		if perms[Wildcard] || perms[perm] {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}
