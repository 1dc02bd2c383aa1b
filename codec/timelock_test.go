package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	offsets := [numPhases]uint32{10, 120, 121, 122, 10, 100, 101}
	const deployedAt = uint32(1_700_000_000)

	packed := PackTimelocks(offsets, deployedAt)
	gotOffsets, gotDeployedAt := UnpackTimelocks(packed)

	require.Equal(t, offsets, gotOffsets)
	require.Equal(t, deployedAt, gotDeployedAt)
}

func TestNonDecreasing(t *testing.T) {
	require.True(t, NonDecreasing([numPhases]uint32{0, 1, 1, 2, 3, 3, 4}))
	require.False(t, NonDecreasing([numPhases]uint32{5, 1, 2, 3, 4, 5, 6}))
}

func TestNonDecreasingAllowsIndependentSrcDstTracks(t *testing.T) {
	// The canonical seed scenario: the destination track starts (offset 10)
	// before the source track ends (offset 122). The two tracks are
	// independent resolver/taker timers, not one global sequence.
	require.True(t, NonDecreasing([numPhases]uint32{10, 120, 121, 122, 10, 100, 101}))
}

func TestNonDecreasingRejectsWithinTrackDecrease(t *testing.T) {
	require.False(t, NonDecreasing([numPhases]uint32{10, 120, 121, 122, 100, 50, 101}))
}

func TestDeriveAbsolute(t *testing.T) {
	offsets := [numPhases]uint32{10, 120, 121, 122, 10, 100, 101}
	abs := DeriveAbsolute(offsets, 1000)

	require.Equal(t, int64(1010), abs[DstWithdrawal])
	require.Equal(t, int64(1100), abs[DstPublicWithdrawal])
	require.Equal(t, int64(1101), abs[DstCancellation])
}

func TestKeccak256IsDeterministicAnd32Bytes(t *testing.T) {
	secret := []byte("a 32-byte secret value padded!!")

	h1 := Keccak256(secret)
	h2 := Keccak256(secret)
	require.Equal(t, h1, h2)
	require.Len(t, h1[:], 32)

	other := Keccak256([]byte("a different secret value here!!"))
	require.NotEqual(t, h1, other)
}

func TestHexEqualMatchesSameBytes(t *testing.T) {
	a := []byte{0xde, 0xad, 0xbe, 0xef}
	b := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.True(t, HexEqual(a, b))
}

func TestParseHash32RoundTrip(t *testing.T) {
	h := Keccak256([]byte("secret"))
	parsed, err := ParseHash32(h.String())
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = ParseHash32("0xdead")
	require.Error(t, err)
}
