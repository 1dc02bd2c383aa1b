package codec

import "encoding/binary"

// Phase indexes the seven windows of the timelock schema, mirroring the
// EVM counterpart contract's phase numbering bit-for-bit.
type Phase int

const (
	SrcWithdrawal Phase = iota
	SrcPublicWithdrawal
	SrcCancellation
	SrcPublicCancellation
	DstWithdrawal
	DstPublicWithdrawal
	DstCancellation

	numPhases = 7
)

// String names a phase for logs and error details.
func (p Phase) String() string {
	names := [numPhases]string{
		"SrcWithdrawal", "SrcPublicWithdrawal", "SrcCancellation",
		"SrcPublicCancellation", "DstWithdrawal", "DstPublicWithdrawal",
		"DstCancellation",
	}
	if p < 0 || int(p) >= numPhases {
		return "UnknownPhase"
	}
	return names[p]
}

// PackedTimelocks is the 256-bit word carrying seven 32-bit phase offsets
// plus a 32-bit deploy timestamp, bit-compatible with the EVM contract's
// packing: lane i occupies bits [32*i, 32*i+32) for i in [0,7), and the
// top 32 bits (lane 7) hold the encoder's deploy timestamp.
type PackedTimelocks [32]byte

// PackTimelocks lays out seven ascending phase offsets and a deploy
// timestamp into a PackedTimelocks word, one little-endian uint32 lane per
// field, lowest lane first — the same tagged-field-by-field layout idiom
// zpay32 uses for its invoice fields, generalized here to fixed 32-bit
// lanes instead of variable-length tagged fields.
func PackTimelocks(offsets [numPhases]uint32, deployedAt uint32) PackedTimelocks {
	var out PackedTimelocks
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], off)
	}
	binary.LittleEndian.PutUint32(out[28:32], deployedAt)
	return out
}

// UnpackTimelocks reads back the seven phase offsets and the embedded
// deploy timestamp from a PackedTimelocks word. Per the specification's
// open question on epoch precedence, the embedded timestamp is returned
// to the caller but the escrow state machine's Create operation does NOT
// use it — it always substitutes a freshly captured wall-clock value (see
// DESIGN.md, Open Question 2).
func UnpackTimelocks(packed PackedTimelocks) (offsets [numPhases]uint32, embeddedDeployedAt uint32) {
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(packed[i*4 : i*4+4])
	}
	embeddedDeployedAt = binary.LittleEndian.Uint32(packed[28:32])
	return offsets, embeddedDeployedAt
}

// NonDecreasing reports whether the offsets are non-decreasing in phase
// index, the well-formedness invariant the specification requires of every
// packed-timelock word. The source-side track (SrcWithdrawal..
// SrcPublicCancellation) and the destination-side track (DstWithdrawal..
// DstCancellation) are independent resolver/taker timers in the EVM
// counterpart contract and so are checked separately rather than as one
// run across all seven lanes — a destination track can legitimately start
// earlier than the source track ends.
func NonDecreasing(offsets [numPhases]uint32) bool {
	return nonDecreasingRun(offsets[SrcWithdrawal:DstWithdrawal]) &&
		nonDecreasingRun(offsets[DstWithdrawal:])
}

func nonDecreasingRun(offsets []uint32) bool {
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return false
		}
	}
	return true
}

// DeriveAbsolute computes the absolute Unix-second timestamp for every
// phase given a deploy epoch, satisfying the invariant
// timelocks[p] == deployed_at + offset_p.
func DeriveAbsolute(offsets [numPhases]uint32, deployedAt int64) [numPhases]int64 {
	var out [numPhases]int64
	for i, off := range offsets {
		out[i] = deployedAt + int64(off)
	}
	return out
}
