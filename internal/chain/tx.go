package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/atlaskeeper/internal/codec"
)

// Result codes reported for a processed transaction.
const (
	CodeOK             uint32 = 0
	CodeTxDecode       uint32 = 2
	CodeUnauthorized   uint32 = 4
	CodeUnknownMessage uint32 = 5
	CodeInvalidRequest uint32 = 7
	CodeDuplicateFile  uint32 = 18
	CodeTxInCache      uint32 = 19
	CodeNodeNotFound   uint32 = 22
)

var ErrUnknownMessage = errors.New("unknown message type")

// TxBody is the signed part of a transaction. Timestamp is Unix
// nanoseconds and keeps otherwise identical bodies apart.
type TxBody struct {
	ChainID   string `cbor:"chain_id"`
	Memo      string `cbor:"memo"`
	Timestamp int64  `cbor:"timestamp"`
	Messages  []Any  `cbor:"messages"`
}

// SignBytes is the digest input of the signature.
func (b TxBody) SignBytes() ([]byte, error) {
	return codec.Marshal(b)
}

// SignedTx is a body with the compact signature of its sign bytes.
type SignedTx struct {
	Body      TxBody `cbor:"body"`
	PubKey    []byte `cbor:"pub_key"`
	Signature []byte `cbor:"signature"`
}

// Encode serializes the transaction for broadcast.
func (t SignedTx) Encode() ([]byte, error) {
	return codec.Marshal(t)
}

// DecodeTx parses broadcast bytes.
func DecodeTx(b []byte) (SignedTx, error) {
	var t SignedTx
	if err := codec.Unmarshal(b, &t); err != nil {
		return SignedTx{}, fmt.Errorf("decode tx: %w", err)
	}
	return t, nil
}

// TxHash is the upper-case hex SHA-256 of the encoded transaction.
func TxHash(txBytes []byte) string {
	sum := sha256.Sum256(txBytes)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// TxResult is the recorded outcome of a transaction.
type TxResult struct {
	Hash      string `cbor:"hash"`
	Height    int64  `cbor:"height"`
	Code      uint32 `cbor:"code"`
	RawLog    string `cbor:"raw_log"`
	Timestamp int64  `cbor:"timestamp"`
}

type BroadcastTxRequest struct {
	TxBytes []byte `cbor:"tx_bytes"`
}

// BroadcastTxResponse reports the admission check. A non-zero Code means the
// transaction was rejected before execution.
type BroadcastTxResponse struct {
	TxHash string `cbor:"tx_hash"`
	Code   uint32 `cbor:"code"`
	RawLog string `cbor:"raw_log"`
}

type GetTxRequest struct {
	Hash string `cbor:"hash"`
}

type GetTxResponse struct {
	Result TxResult `cbor:"result"`
}
