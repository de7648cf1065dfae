package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warrendb/warrendb/internal/catalog"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleOwner, ParseRole("owner"))
	assert.Equal(t, RoleEditor, ParseRole("editor"))
	assert.Equal(t, RoleViewer, ParseRole("viewer"))
	assert.Equal(t, RoleViewer, ParseRole("nonsense"))
}

func TestHighestRole(t *testing.T) {
	assert.Equal(t, RoleViewer, HighestRole(nil))
	assert.Equal(t, RoleOwner, HighestRole([]string{"viewer", "owner", "editor"}))
}

func TestIsAllowed_ViewerCanViewButNotEdit(t *testing.T) {
	actor := Actor{Role: RoleViewer, Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}
	res := Resource{Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}

	assert.Equal(t, Allowed, IsAllowed(actor, ActionView, res))
	assert.Equal(t, Denied, IsAllowed(actor, ActionEdit, res))
}

func TestIsAllowed_EditorCanEditNonIAMButNotIAM(t *testing.T) {
	actor := Actor{Role: RoleEditor, Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}
	plain := Resource{Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}
	iam := Resource{Scope: catalog.ScopeDatabase, NS: "acme", DB: "main", IsIAM: true}

	assert.Equal(t, Allowed, IsAllowed(actor, ActionEdit, plain))
	assert.Equal(t, Denied, IsAllowed(actor, ActionEdit, iam))
}

func TestIsAllowed_OwnerCanEditIAM(t *testing.T) {
	actor := Actor{Role: RoleOwner, Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}
	iam := Resource{Scope: catalog.ScopeDatabase, NS: "acme", DB: "main", IsIAM: true}

	assert.Equal(t, Allowed, IsAllowed(actor, ActionEdit, iam))
}

func TestIsAllowed_ScopeRestrictsToActorsLevelOrBelow(t *testing.T) {
	nsActor := Actor{Role: RoleOwner, Scope: catalog.ScopeNamespace, NS: "acme"}
	sameNS := Resource{Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}
	otherNS := Resource{Scope: catalog.ScopeDatabase, NS: "other", DB: "main"}

	assert.Equal(t, Allowed, IsAllowed(nsActor, ActionView, sameNS))
	assert.Equal(t, Denied, IsAllowed(nsActor, ActionView, otherNS))
}

func TestIsAllowed_DatabaseScopedActorCannotReachNamespaceResource(t *testing.T) {
	dbActor := Actor{Role: RoleOwner, Scope: catalog.ScopeDatabase, NS: "acme", DB: "main"}
	nsResource := Resource{Scope: catalog.ScopeNamespace, NS: "acme"}

	assert.Equal(t, Denied, IsAllowed(dbActor, ActionView, nsResource))
}

func TestIsAllowed_RootActorCoversEverything(t *testing.T) {
	rootActor := Actor{Role: RoleOwner, Scope: catalog.ScopeRoot}
	res := Resource{Scope: catalog.ScopeDatabase, NS: "anything", DB: "whatsoever", IsIAM: true}

	assert.Equal(t, Allowed, IsAllowed(rootActor, ActionEdit, res))
}
