package phase

import (
	"testing"
	"time"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
	"github.com/stretchr/testify/require"
)

func timelocksFixture() [7]int64 {
	offsets := [7]uint32{10, 120, 121, 122, 10, 100, 101}
	return codec.DeriveAbsolute(offsets, 1_000_000_000)
}

func TestValidateWindowNotYetOpen(t *testing.T) {
	tl := timelocksFixture()
	now := time.Unix(1_000_000_005, 0) // before DstWithdrawal

	end := codec.DstCancellation
	err := ValidateWindow(tl, codec.DstWithdrawal, &end, now, 0)
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.NotYetOpen))
}

func TestValidateWindowOpen(t *testing.T) {
	tl := timelocksFixture()
	now := time.Unix(1_000_000_011, 0) // after DstWithdrawal, before DstCancellation

	end := codec.DstCancellation
	err := ValidateWindow(tl, codec.DstWithdrawal, &end, now, 0)
	require.NoError(t, err)
}

func TestValidateWindowClosed(t *testing.T) {
	tl := timelocksFixture()
	now := time.Unix(1_000_000_200, 0) // well past DstCancellation

	end := codec.DstCancellation
	err := ValidateWindow(tl, codec.DstWithdrawal, &end, now, 0)
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.WindowClosed))
}

func TestValidateWindowNoEnd(t *testing.T) {
	tl := timelocksFixture()
	now := time.Unix(1_000_000_300, 0)

	err := ValidateWindow(tl, codec.DstCancellation, nil, now, 0)
	require.NoError(t, err)
}

func TestValidateWindowSlackCompensatesSkew(t *testing.T) {
	tl := timelocksFixture()
	now := time.Unix(1_000_000_005, 0)

	end := codec.DstCancellation
	err := ValidateWindow(tl, codec.DstWithdrawal, &end, now, 10*time.Second)
	require.NoError(t, err)
}
