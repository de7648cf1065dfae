// Package policy implements spec §4.9's embedded policy language: a
// fixed three-role hierarchy (Viewer, Editor, Owner) checked against a
// resource's scope and IAM-sensitivity. internal/exec's NewHooks calls
// IsAllowed from internal/doc's Hooks.Allow (pipeline stages 2/7); no
// DDL path in this repository calls it.
package policy

import "github.com/warrendb/warrendb/internal/catalog"

// Role is one of the three fixed levels spec §4.9 names, ordered so
// a numerically greater role is a strict superset of a lesser one's
// View/Edit rights.
type Role uint8

const (
	RoleViewer Role = iota
	RoleEditor
	RoleOwner
)

// ParseRole maps a catalog.User.Roles string onto a Role, defaulting
// unrecognized names to RoleViewer (a user can never accidentally gain
// Editor/Owner rights from an unparseable role string).
func ParseRole(s string) Role {
	switch s {
	case "owner":
		return RoleOwner
	case "editor":
		return RoleEditor
	default:
		return RoleViewer
	}
}

// HighestRole returns the most privileged role named in roles, or
// RoleViewer if roles is empty — an actor with no recognized role at
// all still gets read access, matching "Viewer ... may View" applying
// unconditionally to anyone holding a grant at the resource's scope.
func HighestRole(roles []string) Role {
	highest := RoleViewer
	for _, r := range roles {
		if parsed := ParseRole(r); parsed > highest {
			highest = parsed
		}
	}
	return highest
}

// Action is the operation being checked (spec §4.9 "View"/"Edit").
type Action uint8

const (
	ActionView Action = iota
	ActionEdit
)

// Actor is the grant being checked: Role at Scope/NS/DB, mirroring
// where a catalog.User's role was assigned (spec §3's root/namespace/
// database user scopes).
type Actor struct {
	Role   Role
	Scope  catalog.Scope
	NS, DB string
}

// Resource is the thing being acted on. IsIAM marks the catalog's own
// access-control entities (spec §4.9 "Editor may Edit non-IAM
// resources"): users, access methods, and roles/grants themselves.
type Resource struct {
	Scope  catalog.Scope
	NS, DB string
	IsIAM  bool
}

// Decision is IsAllowed's result (spec §4.9 "is_allowed(actor, action,
// resource) -> Allowed | Denied").
type Decision uint8

const (
	Denied Decision = iota
	Allowed
)

// IsAllowed runs spec §4.9's three rules. A grant only applies at its
// own scope and at anything nested below it ("at their level or
// below"): a root-scoped grant covers every namespace/database, a
// namespace-scoped grant covers every database within that namespace
// but no other namespace, and a database-scoped grant covers only that
// one database.
func IsAllowed(actor Actor, action Action, resource Resource) Decision {
	if !covers(actor, resource) {
		return Denied
	}
	switch action {
	case ActionView:
		// Viewer/Editor/Owner may all View at their level or below.
		return Allowed
	case ActionEdit:
		switch actor.Role {
		case RoleOwner:
			return Allowed
		case RoleEditor:
			if resource.IsIAM {
				return Denied
			}
			return Allowed
		default:
			return Denied
		}
	default:
		return Denied
	}
}

// covers reports whether actor's scope contains resource's scope.
func covers(actor Actor, resource Resource) bool {
	switch actor.Scope {
	case catalog.ScopeRoot:
		return true
	case catalog.ScopeNamespace:
		return resource.NS == actor.NS
	case catalog.ScopeDatabase:
		return resource.NS == actor.NS && resource.DB == actor.DB
	default:
		return false
	}
}
