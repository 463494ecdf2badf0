package linklab

//
// Bandwidth and size parsing
//

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseBandwidth parses a human-readable bandwidth string and
// returns the equivalent number of bit/s.
//
// The accepted formats are "100", "100k", "100m", "100g" (case
// insensitive), where k=1000, m=1000000, g=1000000000. We use SI
// units because link rates are conventionally decimal.
func ParseBandwidth(s string) (uint64, error) {
	value, multiplier, err := splitValueAndUnit(s, map[byte]uint64{
		'k': 1_000,
		'm': 1_000_000,
		'g': 1_000_000_000,
	})
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth value: %q", s)
	}
	bits := value * float64(multiplier)
	if bits >= math.MaxUint64 {
		return 0, fmt.Errorf("bandwidth value out of range: %q", s)
	}
	return uint64(bits), nil
}

// ParseSize parses a human-readable size string and returns the
// equivalent number of bytes.
//
// The accepted formats are "100", "16k", "32m" (case insensitive),
// where k=1024 and m=1048576. We use binary units because buffer
// sizes are conventionally binary.
func ParseSize(s string) (int64, error) {
	value, multiplier, err := splitValueAndUnit(s, map[byte]uint64{
		'k': 1024,
		'm': 1024 * 1024,
	})
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %q", s)
	}
	bytes := value * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size value out of range: %q", s)
	}
	return int64(bytes), nil
}

// splitValueAndUnit splits a string such as "10m" into its numeric
// part and the multiplier associated with its unit suffix.
func splitValueAndUnit(s string, units map[byte]uint64) (float64, uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	multiplier := uint64(1)
	numStr := s
	if len(s) > 0 {
		if factor, found := units[s[len(s)-1]]; found {
			multiplier = factor
			numStr = strings.TrimSpace(s[:len(s)-1])
		}
	}
	if numStr == "" {
		return 0, 0, fmt.Errorf("missing numeric part")
	}
	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, 0, err
	}
	if value < 0 {
		return 0, 0, fmt.Errorf("negative value")
	}
	return value, multiplier, nil
}

// formatBitrate formats a rate in bit/s the way the tc command line
// expects it, e.g., "10mbit".
func formatBitrate(bits uint64) string {
	switch {
	case bits >= 1_000_000_000 && bits%1_000_000_000 == 0:
		return fmt.Sprintf("%dgbit", bits/1_000_000_000)
	case bits >= 1_000_000 && bits%1_000_000 == 0:
		return fmt.Sprintf("%dmbit", bits/1_000_000)
	case bits >= 1_000 && bits%1_000 == 0:
		return fmt.Sprintf("%dkbit", bits/1_000)
	default:
		return fmt.Sprintf("%dbit", bits)
	}
}

// formatDelay formats a delay the way the tc command line expects
// it, e.g., "10ms" or "1.5ms".
func formatDelay(delay time.Duration) string {
	milliseconds := delay.Seconds() * 1000
	if milliseconds == float64(int64(milliseconds)) {
		return fmt.Sprintf("%dms", int64(milliseconds))
	}
	return fmt.Sprintf("%.3fms", milliseconds)
}
