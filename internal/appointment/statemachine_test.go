package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medconnect/telemed-scheduling/internal/auth"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		role auth.Role
		want error
	}{
		{"doctor requests payment", StatusScheduled, StatusAwaitingPayment, auth.RoleDoctor, nil},
		{"patient requests payment", StatusScheduled, StatusAwaitingPayment, auth.RolePatient, ErrTransitionForbidden},
		{"payment service confirms", StatusAwaitingPayment, StatusConfirmed, auth.RolePaymentService, nil},
		{"patient confirms directly", StatusAwaitingPayment, StatusConfirmed, auth.RolePatient, ErrTransitionForbidden},
		{"doctor confirms directly", StatusAwaitingPayment, StatusConfirmed, auth.RoleDoctor, ErrTransitionForbidden},
		{"patient cancels scheduled", StatusScheduled, StatusCancelled, auth.RolePatient, nil},
		{"patient cancels awaiting payment", StatusAwaitingPayment, StatusCancelled, auth.RolePatient, nil},
		{"doctor cancels confirmed", StatusConfirmed, StatusCancelled, auth.RoleDoctor, nil},
		{"system cancels awaiting payment", StatusAwaitingPayment, StatusCancelled, auth.RoleSystem, nil},
		{"system cancels confirmed", StatusConfirmed, StatusCancelled, auth.RoleSystem, ErrTransitionForbidden},
		{"doctor completes confirmed", StatusConfirmed, StatusCompleted, auth.RoleDoctor, nil},
		{"doctor completes scheduled", StatusScheduled, StatusCompleted, auth.RoleDoctor, nil},
		{"patient completes", StatusConfirmed, StatusCompleted, auth.RolePatient, ErrTransitionForbidden},
		{"doctor marks no-show", StatusConfirmed, StatusNoShow, auth.RoleDoctor, nil},
		{"no-show from awaiting payment", StatusAwaitingPayment, StatusNoShow, auth.RoleDoctor, ErrInvalidTransition},
		{"completed is terminal", StatusCompleted, StatusConfirmed, auth.RolePaymentService, ErrInvalidTransition},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, auth.RolePaymentService, ErrInvalidTransition},
		{"cancelled cannot complete", StatusCancelled, StatusCompleted, auth.RoleDoctor, ErrInvalidTransition},
		{"no-show is terminal", StatusNoShow, StatusScheduled, auth.RoleDoctor, ErrInvalidTransition},
		{"skip payment gate", StatusScheduled, StatusConfirmed, auth.RolePaymentService, ErrInvalidTransition},
		{"same status", StatusScheduled, StatusScheduled, auth.RoleDoctor, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, tt.role)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestStatusClassification(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusAwaitingPayment, StatusConfirmed} {
		assert.True(t, s.Live(), "%s should be live", s)
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
		assert.False(t, s.Live(), "%s should not be live", s)
	}
}
