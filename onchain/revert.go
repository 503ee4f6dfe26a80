package onchain

import (
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Error(string) selector, the standard Solidity revert payload.
var errorStringSelector = [4]byte{0x08, 0xc3, 0x79, 0xa0}

// rpc.DataError is the shape geth-style clients use to carry revert data
// alongside a JSON-RPC error. Declared locally to avoid importing the rpc
// package just for a two-method interface.
type dataError interface {
	Error() string
	ErrorData() interface{}
}

// revertReasonFromError digs the revert reason out of a JSON-RPC error, if
// the node attached return data to it.
func revertReasonFromError(err error) (string, bool) {
	var de dataError
	if !errors.As(err, &de) {
		return "", false
	}
	hexData, ok := de.ErrorData().(string)
	if !ok {
		return "", false
	}
	if !strings.HasPrefix(hexData, "0x") {
		hexData = "0x" + hexData
	}
	data, err2 := hexutil.Decode(hexData)
	if err2 != nil {
		return "", false
	}
	return decodeRevertReason(data)
}

// decodeRevertReason decodes an ABI-encoded Error(string) payload. Returns
// false for anything that is not a well-formed revert-with-reason blob, so
// ordinary return data never gets misread as a revert.
func decodeRevertReason(data []byte) (string, bool) {
	// selector + offset word + length word is the minimum.
	if len(data) < 4+32+32 {
		return "", false
	}
	if data[0] != errorStringSelector[0] || data[1] != errorStringSelector[1] ||
		data[2] != errorStringSelector[2] || data[3] != errorStringSelector[3] {
		return "", false
	}
	body := data[4:]
	bodyLen := uint64(len(body))
	// Bounds are checked by subtraction so hostile offset or length words
	// near the uint64 maximum cannot wrap past the checks.
	offset := binary.BigEndian.Uint64(body[24:32])
	if offset > bodyLen || bodyLen-offset < 32 {
		return "", false
	}
	length := binary.BigEndian.Uint64(body[offset+24 : offset+32])
	strStart := offset + 32
	if length > bodyLen-strStart {
		return "", false
	}
	reason := body[strStart : strStart+length]
	if !utf8.Valid(reason) {
		return "", false
	}
	return string(reason), true
}
