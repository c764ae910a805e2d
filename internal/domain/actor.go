package domain

import "fmt"

type ActorRole string

const (
	ActorRoleRenter ActorRole = "RENTER"
	ActorRoleOwner  ActorRole = "OWNER"
	ActorRoleAdmin  ActorRole = "ADMIN"
	ActorRoleSystem ActorRole = "SYSTEM"
)

// transitionActors lists who may move an order into each status.
// InProgress -> Completed is reserved for the reconciliation pass.
var transitionActors = map[OrderStatus][]ActorRole{
	OrderStatusAccepted:   {ActorRoleOwner, ActorRoleAdmin},
	OrderStatusRejected:   {ActorRoleOwner, ActorRoleAdmin, ActorRoleSystem},
	OrderStatusCancelled:  {ActorRoleRenter, ActorRoleAdmin, ActorRoleSystem},
	OrderStatusInProgress: {ActorRoleOwner, ActorRoleAdmin, ActorRoleSystem},
	OrderStatusCompleted:  {ActorRoleSystem},
}

// Actor is the caller of a state-changing operation as supplied by the request layer.
type Actor struct {
	ID       int32
	IsAdmin  bool
	IsSystem bool
}

var SystemActor = Actor{IsSystem: true}

func NewActor(id int32, isAdmin bool) Actor {
	return Actor{ID: id, IsAdmin: isAdmin}
}

// RolesFor resolves the roles an actor holds with respect to one order and its equipment.
func (a Actor) RolesFor(order *Order, equipment *Equipment) []ActorRole {
	var roles []ActorRole
	if a.IsSystem {
		roles = append(roles, ActorRoleSystem)
	}
	if a.IsAdmin {
		roles = append(roles, ActorRoleAdmin)
	}
	if a.ID != 0 && order != nil && a.ID == order.RenterID {
		roles = append(roles, ActorRoleRenter)
	}
	if a.ID != 0 && equipment != nil && a.ID == equipment.OwnerID {
		roles = append(roles, ActorRoleOwner)
	}
	return roles
}

// CanOperateEquipment reports whether the actor may change equipment status directly.
func (a Actor) CanOperateEquipment(equipment *Equipment) bool {
	return a.IsAdmin || (a.ID != 0 && equipment != nil && a.ID == equipment.OwnerID)
}

func (a Actor) String() string {
	switch {
	case a.IsSystem:
		return "system"
	case a.IsAdmin:
		return fmt.Sprintf("admin:%d", a.ID)
	}
	return fmt.Sprintf("user:%d", a.ID)
}

// MayRequest reports whether any of the roles is allowed to move an order into target.
func MayRequest(roles []ActorRole, target OrderStatus) bool {
	for _, allowed := range transitionActors[target] {
		for _, r := range roles {
			if r == allowed {
				return true
			}
		}
	}
	return false
}
