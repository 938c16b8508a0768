package position

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// IDSource hands out unique position ids.
type IDSource interface {
	NextPositionID() ID
}

// KeccakIDs derives ids as keccak256(namespace || seq).
type KeccakIDs struct {
	namespace []byte
	seq       uint64
}

func NewKeccakIDs(namespace string) *KeccakIDs {
	return &KeccakIDs{namespace: []byte(namespace)}
}

func (k *KeccakIDs) NextPositionID() ID {
	k.seq++
	return crypto.Keccak256Hash(k.namespace, binary.BigEndian.AppendUint64(nil, k.seq))
}

// Seq returns the number of ids issued so far.
func (k *KeccakIDs) Seq() uint64 {
	return k.seq
}
