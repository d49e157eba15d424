package orders

import (
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

type action int

const (
	actionReject action = iota
	actionNoop
	actionSetStatus
	actionDispatch
)

type rule struct {
	action action
	code   pkgerrors.Code
}

var (
	allow    = rule{action: actionSetStatus}
	dispatch = rule{action: actionDispatch}
	noop     = rule{action: actionNoop}
	conflict = rule{action: actionReject, code: pkgerrors.CodeStateConflict}
)

// transitions is keyed by current status, then requested status. Terminal
// statuses are handled before the lookup.
var transitions = map[enums.OrderStatus]map[enums.OrderStatus]rule{
	enums.OrderStatusPending: {
		enums.OrderStatusPending:    conflict,
		enums.OrderStatusApproved:   allow,
		enums.OrderStatusDispatched: dispatch,
		enums.OrderStatusCancelled:  allow,
		enums.OrderStatusDelivered:  allow,
	},
	enums.OrderStatusApproved: {
		enums.OrderStatusPending:    conflict,
		enums.OrderStatusApproved:   noop,
		enums.OrderStatusDispatched: dispatch,
		enums.OrderStatusCancelled:  allow,
		enums.OrderStatusDelivered:  allow,
	},
	enums.OrderStatusDispatched: {
		enums.OrderStatusPending:    conflict,
		enums.OrderStatusApproved:   conflict,
		enums.OrderStatusDispatched: conflict,
		enums.OrderStatusCancelled:  {action: actionReject, code: pkgerrors.CodeCannotCancelDispatched},
		enums.OrderStatusDelivered:  allow,
	},
}

// decide maps a requested transition onto an action or a typed rejection.
func decide(from, to enums.OrderStatus) (action, error) {
	if !to.IsValid() {
		return actionReject, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	// Closed orders reject every target, Delivered included.
	if from.IsTerminal() {
		return actionReject, pkgerrors.Newf(pkgerrors.CodeOrderClosed, "Order is already %s and cannot be modified.", from)
	}
	row, ok := transitions[from]
	if !ok {
		return actionReject, pkgerrors.Newf(pkgerrors.CodeStateConflict, "unknown current status %q", from)
	}
	r := row[to]
	if r.action != actionReject {
		return r.action, nil
	}
	switch r.code {
	case pkgerrors.CodeCannotCancelDispatched:
		return actionReject, pkgerrors.New(r.code, "Cannot cancel an order after dispatch.")
	default:
		return actionReject, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, to)
	}
}
