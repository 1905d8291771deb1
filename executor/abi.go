package executor

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	jsoniter "github.com/json-iterator/go"
)

const executeMethod = "executeFlashArbitrage"

// Arbitrage contract ABI, entry point only
const arbitrageABI = `[
	{
		"inputs": [
			{
				"internalType": "address",
				"name": "flashLoanPool",
				"type": "address"
			},
			{
				"internalType": "uint256",
				"name": "loanAmount",
				"type": "uint256"
			},
			{
				"internalType": "address",
				"name": "srcToken",
				"type": "address"
			},
			{
				"internalType": "address",
				"name": "destToken",
				"type": "address"
			},
			{
				"internalType": "uint8",
				"name": "swapOrder",
				"type": "uint8"
			},
			{
				"internalType": "bytes",
				"name": "paraswapData",
				"type": "bytes"
			},
			{
				"internalType": "bytes",
				"name": "kyberswapData",
				"type": "bytes"
			}
		],
		"name": "executeFlashArbitrage",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// DefaultABI returns the built-in arbitrage contract ABI
func DefaultABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(arbitrageABI))
	if err != nil {
		panic(fmt.Sprintf("invalid arbitrage ABI: %v", err))
	}
	return parsed
}

// LoadABI reads a contract ABI from path. Both a bare ABI array and a
// build artifact with an "abi" field are accepted.
func LoadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: failed to read ABI file: %v", types.ErrConfiguration, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var artifact struct {
			ABI jsoniter.RawMessage `json:"abi"`
		}
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, fmt.Errorf("%w: malformed ABI artifact: %v", types.ErrConfiguration, err)
		}
		data = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: invalid ABI: %v", types.ErrConfiguration, err)
	}
	if _, ok := parsed.Methods[executeMethod]; !ok {
		return abi.ABI{}, fmt.Errorf("%w: ABI has no %s method", types.ErrConfiguration, executeMethod)
	}
	return parsed, nil
}
