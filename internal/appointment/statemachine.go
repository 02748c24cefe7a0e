package appointment

import (
	"errors"

	"github.com/medconnect/telemed-scheduling/internal/auth"
)

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTransitionForbidden = errors.New("actor role may not perform this transition")
)

type transition struct {
	From Status
	To   Status
}

// allowedTransitions is the complete lifecycle. A (from, to) pair absent
// from this table is invalid for every actor; a present pair is restricted
// to the listed roles. The system role exists for the expiry worker, which
// cancels appointments that sat unpaid for too long.
var allowedTransitions = map[transition][]auth.Role{
	{StatusScheduled, StatusAwaitingPayment}: {auth.RoleDoctor},
	{StatusAwaitingPayment, StatusConfirmed}: {auth.RolePaymentService},

	{StatusScheduled, StatusCancelled}:       {auth.RolePatient, auth.RoleDoctor},
	{StatusAwaitingPayment, StatusCancelled}: {auth.RolePatient, auth.RoleDoctor, auth.RoleSystem},
	{StatusConfirmed, StatusCancelled}:       {auth.RolePatient, auth.RoleDoctor},

	{StatusScheduled, StatusCompleted}: {auth.RoleDoctor},
	{StatusConfirmed, StatusCompleted}: {auth.RoleDoctor},

	{StatusScheduled, StatusNoShow}: {auth.RoleDoctor},
	{StatusConfirmed, StatusNoShow}: {auth.RoleDoctor},
}

// CheckTransition validates a requested transition against the table.
func CheckTransition(from, to Status, role auth.Role) error {
	roles, ok := allowedTransitions[transition{From: from, To: to}]
	if !ok {
		return ErrInvalidTransition
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return ErrTransitionForbidden
}
