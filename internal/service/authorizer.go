package service

import (
	"caribepos/internal/model"

	"github.com/google/uuid"
)

// Closer identifies the user attempting to close a shift.
type Closer struct {
	UserID uuid.UUID
	Rol    string
}

// ShiftAuthorizer answers "may this user close this shift". The shift service
// calls it on every Close; swapping the implementation changes policy without
// touching the state machine.
type ShiftAuthorizer interface {
	CanClose(closer Closer, shift *model.CashShift) bool
}

// RoleAuthorizer is the default policy: the opener may close their own shift,
// supervisors and administrators may close anyone's.
type RoleAuthorizer struct{}

func (RoleAuthorizer) CanClose(closer Closer, shift *model.CashShift) bool {
	if closer.UserID == shift.OpenedBy {
		return true
	}
	return closer.Rol == model.RoleSupervisor || closer.Rol == model.RoleAdministrador
}
