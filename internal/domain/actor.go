package domain

import "fmt"

type ActorRole string

const (
	ActorRoleAdmin    ActorRole = "admin"
	ActorRoleCustomer ActorRole = "customer"
)

// Actor is the caller identity resolved by the authorization collaborator.
// Construct it with Admin or Customer; the zero value is anonymous.
type Actor struct {
	role ActorRole
	id   string
}

func Admin(id string) Actor {
	return Actor{role: ActorRoleAdmin, id: id}
}

func Customer(id string) Actor {
	return Actor{role: ActorRoleCustomer, id: id}
}

func ParseActor(role, id string) (Actor, error) {
	if id == "" {
		return Actor{}, fmt.Errorf("actor id is empty: %w", ErrUnauthorized)
	}

	switch ActorRole(role) {
	case ActorRoleAdmin:
		return Admin(id), nil
	case ActorRoleCustomer:
		return Customer(id), nil
	default:
		return Actor{}, fmt.Errorf("actor role[%s] is not valid: %w", role, ErrUnauthorized)
	}
}

func (a Actor) ID() string {
	return a.id
}

func (a Actor) IsAdmin() bool {
	return a.role == ActorRoleAdmin
}

// CustomerID returns the id and true only for customer actors.
func (a Actor) CustomerID() (string, bool) {
	if a.role != ActorRoleCustomer {
		return "", false
	}
	return a.id, true
}

// CanAccess reports whether the actor may act on a resource owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	switch a.role {
	case ActorRoleAdmin:
		return true
	case ActorRoleCustomer:
		return a.id != "" && a.id == ownerID
	default:
		return false
	}
}

func (a Actor) String() string {
	if a.role == "" {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%s", a.role, a.id)
}
