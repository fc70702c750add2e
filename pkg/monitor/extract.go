// Package monitor infers IGRA service state from log output and status blobs.
package monitor

import (
	"math"
	"strconv"
	"strings"
)

// BlockMarker is the log token emitted by block-builder for each produced block.
const BlockMarker = "Built block"

// ExtractBlockHeight returns the block number of the most recent line
// carrying BlockMarker and a "#<digits>" run. Lines are ordered oldest first.
func ExtractBlockHeight(lines []string) (uint64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(line, BlockMarker) {
			continue
		}
		if height, ok := blockNumber(line); ok {
			return height, true
		}
	}
	return 0, false
}

// blockNumber parses the first '#' in line that is followed by digits.
// A digit run that overflows uint64 makes the line unusable.
func blockNumber(line string) (uint64, bool) {
	for rest := line; ; {
		pos := strings.IndexByte(rest, '#')
		if pos < 0 {
			return 0, false
		}
		rest = rest[pos+1:]
		n := 0
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n == 0 {
			continue
		}
		v, err := strconv.ParseUint(rest[:n], 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
}

// ExtractSyncPercentage returns the percentage from the most recent line that
// mentions sync (any case) and carries a "<float>%" token.
func ExtractSyncPercentage(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(strings.ToLower(line), "sync") {
			continue
		}
		if pct, ok := percentToken(line); ok {
			return pct, true
		}
	}
	return 0, false
}

func percentToken(line string) (float64, bool) {
	for _, word := range strings.Fields(line) {
		num, found := strings.CutSuffix(word, "%")
		if !found {
			continue
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v, true
	}
	return 0, false
}

// CountMarker counts the lines containing marker.
func CountMarker(lines []string, marker string) uint64 {
	var n uint64
	for _, line := range lines {
		if strings.Contains(line, marker) {
			n++
		}
	}
	return n
}
