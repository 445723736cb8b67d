package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	accountTagSize = 8
	// MinCapsuleAccountSize is the size of a capsule account with an empty
	// intent payload and no execution timestamp.
	MinCapsuleAccountSize = accountTagSize + solana.PublicKeyLength + 8 + 8 + 4 + 1 + 1
)

// byteCursor reads sequential fields out of a buffer, failing instead of
// reading past its end.
type byteCursor struct {
	buf []byte
	pos int
}

func (c *byteCursor) next(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.pos {
		return nil, fmt.Errorf(
			"%w: need %d bytes at offset %d, have %d",
			ErrMalformedAccount, n, c.pos, len(c.buf)-c.pos,
		)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *byteCursor) int64() (int64, error) {
	b, err := c.next(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (c *byteCursor) uint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// bool treats only 1 as true.
func (c *byteCursor) bool() (bool, error) {
	b, err := c.next(1)
	if err != nil {
		return false, err
	}
	return b[0] == 1, nil
}

// DecodeCapsule parses raw capsule account data. The leading 8-byte account
// tag is skipped without validation. The returned capsule does not share
// memory with data.
func DecodeCapsule(data []byte) (*Capsule, error) {
	if len(data) < MinCapsuleAccountSize {
		return nil, fmt.Errorf(
			"%w: got %d bytes, need at least %d",
			ErrMalformedAccount, len(data), MinCapsuleAccountSize,
		)
	}

	cur := &byteCursor{buf: data}
	if _, err := cur.next(accountTagSize); err != nil {
		return nil, err
	}

	ownerBytes, err := cur.next(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}
	inactivityPeriod, err := cur.int64()
	if err != nil {
		return nil, err
	}
	lastActivity, err := cur.int64()
	if err != nil {
		return nil, err
	}
	intentLen, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	if uint64(intentLen) > uint64(len(data)) {
		return nil, fmt.Errorf(
			"%w: intent length %d exceeds account size %d",
			ErrMalformedAccount, intentLen, len(data),
		)
	}
	intentData, err := cur.next(int(intentLen))
	if err != nil {
		return nil, err
	}
	isActive, err := cur.bool()
	if err != nil {
		return nil, err
	}
	hasExecutedAt, err := cur.bool()
	if err != nil {
		return nil, err
	}

	intent := make([]byte, len(intentData))
	copy(intent, intentData)

	capsule := &Capsule{
		Owner:            solana.PublicKeyFromBytes(ownerBytes),
		InactivityPeriod: inactivityPeriod,
		LastActivity:     lastActivity,
		IntentData:       intent,
		IsActive:         isActive,
	}
	if hasExecutedAt {
		executedAt, err := cur.int64()
		if err != nil {
			return nil, err
		}
		capsule.ExecutedAt = &executedAt
	}

	return capsule, nil
}

// EncodeCapsule is the inverse of DecodeCapsule.
func EncodeCapsule(tag [8]byte, c Capsule) []byte {
	size := MinCapsuleAccountSize + len(c.IntentData)
	if c.ExecutedAt != nil {
		size += 8
	}
	buf := make([]byte, 0, size)
	buf = append(buf, tag[:]...)
	buf = append(buf, c.Owner[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(c.InactivityPeriod))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(c.LastActivity))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.IntentData)))
	buf = append(buf, c.IntentData...)
	buf = append(buf, boolByte(c.IsActive))
	buf = append(buf, boolByte(c.ExecutedAt != nil))
	if c.ExecutedAt != nil {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(*c.ExecutedAt))
	}
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
