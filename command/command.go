// Package command defines the coordinator's typed command set and a
// Dispatch router, in the shape of lnwire's MessageType enum plus
// makeEmptyMessage factory dispatch (lnwire/message.go), generalized from
// decoding bytes off the wire to routing already-typed Go request structs —
// wire decoding itself is the transport's job and out of scope here.
package command

import (
	"context"
	"fmt"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrow"
)

// Type identifies a coordinator command, mirroring lnwire.MessageType's
// role as the dispatch key.
type Type uint8

const (
	TypeCreateDst Type = iota
	TypeFund
	TypeWithdraw
	TypeCancel
	TypeRescue
	TypeGetEscrow
	TypeHealth
)

// String names a Type for logs.
func (t Type) String() string {
	switch t {
	case TypeCreateDst:
		return "CreateDst"
	case TypeFund:
		return "Fund"
	case TypeWithdraw:
		return "Withdraw"
	case TypeCancel:
		return "Cancel"
	case TypeRescue:
		return "Rescue"
	case TypeGetEscrow:
		return "GetEscrow"
	case TypeHealth:
		return "Health"
	default:
		return "Unknown"
	}
}

// Command is any typed request the dispatcher can route.
type Command interface {
	Type() Type
}

// CreateDst wraps escrow.CreateRequest as a Command.
type CreateDst struct{ escrow.CreateRequest }

// Type implements Command.
func (CreateDst) Type() Type { return TypeCreateDst }

// Fund wraps escrow.FundRequest as a Command.
type Fund struct{ escrow.FundRequest }

// Type implements Command.
func (Fund) Type() Type { return TypeFund }

// Withdraw wraps escrow.WithdrawRequest as a Command.
type Withdraw struct{ escrow.WithdrawRequest }

// Type implements Command.
func (Withdraw) Type() Type { return TypeWithdraw }

// Cancel wraps escrow.CancelRequest as a Command.
type Cancel struct{ escrow.CancelRequest }

// Type implements Command.
func (Cancel) Type() Type { return TypeCancel }

// Rescue wraps escrow.RescueRequest as a Command.
type Rescue struct{ escrow.RescueRequest }

// Type implements Command.
func (Rescue) Type() Type { return TypeRescue }

// GetEscrow requests the public view of one escrow record.
type GetEscrow struct {
	EscrowID codec.EscrowID
}

// Type implements Command.
func (GetEscrow) Type() Type { return TypeGetEscrow }

// Health requests the coordinator's liveness summary.
type Health struct{}

// Type implements Command.
func (Health) Type() Type { return TypeHealth }

// Result is whatever a dispatched Command returns on success: one of
// *escrow.CreateResult, *escrow.FundResult, *escrow.WithdrawResult,
// *escrow.CancelResult, *escrow.RescueResult, *store.Record (GetEscrow), or
// escrow.HealthReport (Health).
type Result interface{}

// Dispatch routes cmd to the matching Machine method and returns its typed
// result, in the same switch-on-type shape as lnwire's makeEmptyMessage
// factory, except no decoding step is involved — cmd already carries a
// concrete, validated Go value.
func Dispatch(ctx context.Context, m *escrow.Machine, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case CreateDst:
		return m.Create(ctx, c.CreateRequest)
	case Fund:
		return m.Fund(ctx, c.FundRequest)
	case Withdraw:
		return m.Withdraw(ctx, c.WithdrawRequest)
	case Cancel:
		return m.Cancel(ctx, c.CancelRequest)
	case Rescue:
		return m.Rescue(ctx, c.RescueRequest)
	case GetEscrow:
		return m.Get(c.EscrowID)
	case Health:
		return m.Health(ctx), nil
	default:
		return nil, fmt.Errorf("command: unknown command type %T", cmd)
	}
}
