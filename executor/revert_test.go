package executor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
)

type rpcDataError struct {
	data interface{}
}

func (e *rpcDataError) Error() string          { return "execution reverted" }
func (e *rpcDataError) ErrorData() interface{} { return e.data }

// Error(string) selector followed by the abi encoded "No profit"
const noProfitRevert = "0x08c379a0" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"0000000000000000000000000000000000000000000000000000000000000009" +
	"4e6f2070726f6669740000000000000000000000000000000000000000000000"

func TestRevertReason(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
		ok     bool
	}{
		{"HexString", &rpcDataError{data: noProfitRevert}, "No profit", true},
		{"Bytes", &rpcDataError{data: hexutil.MustDecode(noProfitRevert)}, "No profit", true},
		{"Wrapped", fmt.Errorf("estimate: %w", &rpcDataError{data: noProfitRevert}), "No profit", true},
		{"NoData", errors.New("connection refused"), "", false},
		{"BadHex", &rpcDataError{data: "0xzz"}, "", false},
		{"NotErrorString", &rpcDataError{data: "0x12345678"}, "", false},
		{"UnknownType", &rpcDataError{data: 42}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := RevertReason(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
