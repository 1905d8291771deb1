package executor

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// dataError is implemented by RPC errors that carry revert data
type dataError interface {
	ErrorData() interface{}
}

// RevertReason extracts the Error(string) message from a failed call. It
// returns false when err carries no decodable revert data.
func RevertReason(err error) (string, bool) {
	var de dataError
	if !errors.As(err, &de) {
		return "", false
	}

	var data []byte
	switch v := de.ErrorData().(type) {
	case string:
		decoded, err := hexutil.Decode(v)
		if err != nil {
			return "", false
		}
		data = decoded
	case []byte:
		data = v
	default:
		return "", false
	}

	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return "", false
	}
	return reason, true
}
