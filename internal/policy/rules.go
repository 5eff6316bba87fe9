package policy

import (
	"context"

	"github.com/ukydev/fleet-manager/internal/models"
)

// RolePolicy grants each action to a fixed set of roles.
type RolePolicy map[Action][]models.Role

func (p RolePolicy) Check(_ context.Context, claims *models.Claims, action Action, _ any) error {
	for _, role := range p[action] {
		if claims.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

var (
	everyone = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleOperator, models.RoleViewer}
	editors  = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleOperator}
	managers = []models.Role{models.RoleAdmin, models.RoleManager}
	admins   = []models.Role{models.RoleAdmin}
)

// UserTarget identifies the account an admin acts upon.
type UserTarget struct {
	ID string
}

// userPolicy restricts account management to admins and forbids deleting the
// caller's own account.
func userPolicy(ctx context.Context, claims *models.Claims, action Action, target any) error {
	if claims.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if action == ActionDelete {
		if t, ok := target.(UserTarget); ok && t.ID == claims.UserID {
			return ErrSelfDelete
		}
	}
	return nil
}

// Default returns the gate used by the server.
func Default() *Gate {
	g := NewGate()
	g.Register(ResourceRecords, RolePolicy{
		ActionView:   everyone,
		ActionList:   everyone,
		ActionCreate: editors,
		ActionUpdate: editors,
		ActionDelete: managers,
	})
	g.Register(ResourceMissions, RolePolicy{
		ActionView:   everyone,
		ActionList:   everyone,
		ActionUpdate: editors,
	})
	g.Register(ResourceUploads, RolePolicy{
		ActionCreate: editors,
	})
	g.Register(ResourceSettings, RolePolicy{
		ActionView:   admins,
		ActionManage: admins,
	})
	g.Register(ResourceDemo, RolePolicy{
		ActionManage: admins,
	})
	g.Register(ResourceUsers, PolicyFunc(userPolicy))
	return g
}
