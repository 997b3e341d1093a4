package display

import (
	"fmt"
)

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatBytes returns a human-readable binary size, e.g. "512 B" or "1.5 MiB".
// Negative sizes keep their sign.
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + FormatBytes(-n)
	}
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[i])
}

// FormatBytesWithSign renders a delta with an explicit "+ " or "- ".
func FormatBytesWithSign(n int64) string {
	switch {
	case n > 0:
		return "+ " + FormatBytes(n)
	case n < 0:
		return "- " + FormatBytes(-n)
	}
	return FormatBytes(0)
}

// FormatSizeChange renders "in -> out (delta)" for one file or a batch total.
// A grown output shows a "+" delta.
func FormatSizeChange(input, output int64) string {
	return fmt.Sprintf("%s -> %s (%s)",
		FormatBytes(input), FormatBytes(output), FormatBytesWithSign(output-input))
}
