package auth

import (
	"context"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// Enforcer answers role permission checks from an in-memory casbin policy
// built from a role to permissions table.
type Enforcer struct {
	enforcer *casbin.Enforcer
}

func NewEnforcer(rolePermissions map[string][]string) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, perms := range rolePermissions {
		for _, perm := range perms {
			if _, err := e.AddPolicy(Subject(role), perm); err != nil {
				return nil, err
			}
		}
	}
	return &Enforcer{enforcer: e}, nil
}

// Subject is the casbin subject for a role name.
func Subject(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = "anonymous"
	}
	return "role:" + role
}

func (e *Enforcer) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	return e.enforcer.Enforce(Subject(role), permission)
}
