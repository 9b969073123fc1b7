package tracer

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// revertSelector is Error(string)'s 4-byte selector, the standard Solidity
// encoding for a require()/revert() reason string.
const revertSelector = "08c379a0"

// decodeErrorMessage extracts a Solidity revert reason from a contract
// call's raw output, per spec.md §4.3.1's `decode_error_message`. Any output
// that isn't the standard Error(string) encoding decodes to "".
func decodeErrorMessage(output string) string {
	data, err := hexutil.Decode(output)
	if err != nil || len(data) < 4+32+32 {
		return ""
	}
	if hex.EncodeToString(data[:4]) != revertSelector {
		return ""
	}
	length := new(big.Int).SetBytes(data[4+32 : 4+64]).Int64()
	start := int64(4 + 64)
	if length < 0 || start+length > int64(len(data)) {
		return ""
	}
	return strings.TrimRight(string(data[start:start+length]), "\x00")
}
