// Package phase implements the phase/time validator: given an escrow's
// absolute timelocks and a requested action's window, determine whether
// wall-clock time (optionally slack-adjusted for clock skew against the
// EVM counterpart) lies inside it. Shaped after the window guard clauses
// in contractcourt/htlc_timeout_resolver.go's Resolve method, generalized
// from a single hard-coded check into a reusable two-sided window test.
package phase

import (
	"time"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
)

// ValidateWindow fails with NotYetOpen if now (adjusted by slack) precedes
// timelocks[start], or WindowClosed if end is non-nil and now has reached
// timelocks[*end]. Returns nil if now lies within [start, end).
func ValidateWindow(timelocks [7]int64, start codec.Phase, end *codec.Phase, now time.Time, slack time.Duration) error {
	adjusted := now.Add(slack).Unix()

	if adjusted < timelocks[start] {
		return escrowerr.New(
			escrowerr.NotYetOpen,
			"%s not available until %s", start,
			time.Unix(timelocks[start], 0).UTC().Format(time.RFC3339),
		)
	}

	if end != nil && adjusted >= timelocks[*end] {
		return escrowerr.New(
			escrowerr.WindowClosed,
			"%s window closed at %s", start,
			time.Unix(timelocks[*end], 0).UTC().Format(time.RFC3339),
		)
	}

	return nil
}
