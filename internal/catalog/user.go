package catalog

import (
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Scope selects which level of the addressing hierarchy a User or
// AccessMethod is defined at (spec §3 `/!us`, `/!ac` root families,
// supplemented per SPEC_FULL §13 with the namespace/database-scoped
// equivalents the original system also carries).
type Scope uint8

const (
	ScopeRoot Scope = iota
	ScopeNamespace
	ScopeDatabase
)

// User is a catalog-defined account (spec §3, supplement §13):
// PasswordHash is an opaque precomputed hash (hashing itself is the
// caller's concern, out of scope here same as token issuance), Roles
// names the policy roles internal/policy.IsAllowed consults.
type User struct {
	Scope        Scope
	NS, DB       string
	Name         string
	PasswordHash string
	Roles        []string
}

func (u User) toValue() val.Value {
	roles := make([]val.Value, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = val.String(r)
	}
	return val.Object(map[string]val.Value{
		"scope":    val.Int(int64(u.Scope)),
		"ns":       val.String(u.NS),
		"db":       val.String(u.DB),
		"name":     val.String(u.Name),
		"password": val.String(u.PasswordHash),
		"roles":    val.Array(roles),
	})
}

func userFromValue(v val.Value) User {
	obj, _ := v.AsObject()
	scope, _ := obj["scope"].AsNumber()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	name, _ := obj["name"].AsString()
	pw, _ := obj["password"].AsString()
	rolesArr, _ := obj["roles"].AsArray()
	roles := make([]string, len(rolesArr))
	for i, r := range rolesArr {
		roles[i], _ = r.AsString()
	}
	return User{Scope: Scope(scope.I), NS: ns, DB: db, Name: name, PasswordHash: pw, Roles: roles}
}

func userKey(u User) ([]byte, error) {
	switch u.Scope {
	case ScopeRoot:
		return keys.RootUser{Name: u.Name}.Encode()
	case ScopeNamespace:
		return keys.NsUser{NS: u.NS, Name: u.Name}.Encode()
	case ScopeDatabase:
		return keys.DbUser{NS: u.NS, DB: u.DB, Name: u.Name}.Encode()
	default:
		return nil, errs.New(errs.KindMalformedKey, "catalog.userKey", nil)
	}
}

func DefineUser(txn txnWriter, u User) (User, error) {
	key, err := userKey(u)
	if err != nil {
		return User{}, err
	}
	if err := defineEntity(txn, "catalog.DefineUser", key, u.toValue(), true); err != nil {
		return User{}, err
	}
	return u, nil
}

func GetUser(txn txnReader, scope Scope, ns, db, name string) (User, error) {
	key, err := userKey(User{Scope: scope, NS: ns, DB: db, Name: name})
	if err != nil {
		return User{}, err
	}
	v, err := readEntity(txn, "catalog.GetUser", key)
	if err != nil {
		return User{}, err
	}
	return userFromValue(v), nil
}

func RemoveUser(txn txnWriter, scope Scope, ns, db, name string) error {
	key, err := userKey(User{Scope: scope, NS: ns, DB: db, Name: name})
	if err != nil {
		return err
	}
	return removeEntity(txn, key)
}
