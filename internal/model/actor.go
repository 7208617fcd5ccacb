package model

// Role is the access level of an acting user. Only these four values
// are recognized; owner and assignee are relations derived per task.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
)

// Actor identifies the user performing an operation. Identity and role
// resolution happen outside the core; the core threads the actor through
// every call explicitly.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// CanManage reports whether the actor may create, update, delete,
// restore, or assign tasks.
func (a Actor) CanManage() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// CanAct reports whether the actor may act on the given task as admin,
// creator, or assignee.
func (a Actor) CanAct(t *Task) bool {
	if a.Role == RoleAdmin || t.CreatedBy == a.ID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == a.ID
}
