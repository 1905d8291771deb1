package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ServiceID identifies a pricing service (DEX aggregator)
type ServiceID string

const (
	ServiceParaswap  ServiceID = "paraswap"
	ServiceKyberswap ServiceID = "kyberswap"
)

// Direction selects the order in which the two services are used within a
// round trip. The numeric value is passed to the arbitrage contract as the
// swap order flag.
type Direction uint8

const (
	// DirectionAtoB quotes the outbound leg on service A and the return leg
	// on service B.
	DirectionAtoB Direction = 0
	// DirectionBtoA is the mirrored ordering.
	DirectionBtoA Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionAtoB:
		return "AtoB"
	case DirectionBtoA:
		return "BtoA"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Quote represents one priced, not yet executed swap
type Quote struct {
	Service      ServiceID
	Source       *Token
	Dest         *Token
	SourceAmount *big.Int
	// DestAmount is in the destination token's base units
	DestAmount *big.Int
	// Route is the service specific route descriptor, passed back verbatim
	// when building the swap payload.
	Route json.RawMessage
}

// SwapPayload holds opaque, service specific calldata for one leg
type SwapPayload struct {
	Service  ServiceID
	Calldata []byte
}

// Attempt is scoped to a single loop iteration and direction
type Attempt struct {
	Direction            Direction
	Leg1                 *Quote
	Leg2                 *Quote
	DesiredMinimumOutput *big.Int
}

// Execution reports a mined arbitrage transaction
type Execution struct {
	Direction Direction
	TxHash    common.Hash
	Receipt   *types.Receipt
}

// Reverted reports whether the mined transaction failed on-chain
func (e *Execution) Reverted() bool {
	return e.Receipt != nil && e.Receipt.Status == types.ReceiptStatusFailed
}
