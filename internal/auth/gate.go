package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/cuihairu/gamelink/internal/catalog"
)

const gateModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Gate decides whether a role may call an admin route.
type Gate struct {
	enforcer *casbin.Enforcer
}

// NewGate builds the enforcer with the built-in policy: ADMIN may do
// anything under /api/admin.
func NewGate() (*Gate, error) {
	m, err := model.NewModelFromString(gateModel)
	if err != nil {
		return nil, fmt.Errorf("gate model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("gate enforcer: %w", err)
	}
	if _, err := e.AddPolicy(catalog.RoleAdmin, "/api/admin/*", "*"); err != nil {
		return nil, err
	}
	return &Gate{enforcer: e}, nil
}

func (g *Gate) Can(role, path, method string) bool {
	ok, err := g.enforcer.Enforce(role, path, method)
	return err == nil && ok
}
