package radio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frequency is a radio frequency in hertz.
type Frequency uint64

// ParseKilohertz converts a decimal kilohertz string, as published by the
// spot feed, into a Frequency. Fractional hertz are truncated.
func ParseKilohertz(s string) (Frequency, error) {
	khz, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}
	// ParseFloat accepts "NaN" and "Inf"; a float to uint conversion of
	// either is unspecified.
	if math.IsNaN(khz) || math.IsInf(khz, 0) {
		return 0, fmt.Errorf("invalid frequency %q: not finite", s)
	}
	if khz < 0 {
		return 0, fmt.Errorf("invalid frequency %q: negative", s)
	}
	return Frequency(khz * 1000), nil
}

// MHz returns the whole-megahertz part.
func (f Frequency) MHz() uint64 {
	return uint64(f) / 1_000_000
}

// String renders the frequency in megahertz with kilohertz precision, e.g.
// "14.285". A half-kilohertz remainder keeps its trailing ".5".
func (f Frequency) String() string {
	khz := (uint64(f) % 1_000_000) / 1000
	hz := uint64(f) % 1000
	s := fmt.Sprintf("%d.%03d", f.MHz(), khz)
	if hz == 500 {
		s += ".5"
	}
	return s
}

// Band is a named amateur frequency allocation.
type Band int

const (
	Band20m Band = iota
	Band40m
)

// ParseBand matches the bands the pota command accepts.
func ParseBand(s string) (Band, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "20m":
		return Band20m, nil
	case "40m":
		return Band40m, nil
	default:
		return 0, fmt.Errorf("unknown band %q", s)
	}
}

func (b Band) String() string {
	switch b {
	case Band20m:
		return "20m"
	case Band40m:
		return "40m"
	default:
		return fmt.Sprintf("Band(%d)", int(b))
	}
}

// Range returns the band's frequency limits in hertz, inclusive.
func (b Band) Range() (low, high Frequency) {
	switch b {
	case Band20m:
		return 14_000_000, 14_350_000
	case Band40m:
		return 7_000_000, 7_300_000
	default:
		return 0, 0
	}
}

// Contains reports whether f falls inside the band, inclusive of both edges.
func (b Band) Contains(f Frequency) bool {
	low, high := b.Range()
	return f >= low && f <= high
}

// Mode is a transmission mode as reported by the spot feed. The zero value
// is the unknown mode, used when the feed omits or reports an unrecognized
// mode string.
type Mode string

const (
	ModeUnknown Mode = ""
	ModeFT4     Mode = "FT4"
	ModeFT8     Mode = "FT8"
	ModeSSB     Mode = "SSB"
	ModeUSB     Mode = "USB"
	ModeLSB     Mode = "LSB"
	ModeCW      Mode = "CW"
	ModeFM      Mode = "FM"
	ModeRTTY    Mode = "RTTY"
	ModeC4FM    Mode = "C4FM"
	ModePSK31   Mode = "PSK31"
	ModeDSTAR   Mode = "DSTAR"
)

var knownModes = map[string]Mode{
	"FT4":   ModeFT4,
	"FT8":   ModeFT8,
	"SSB":   ModeSSB,
	"USB":   ModeUSB,
	"LSB":   ModeLSB,
	"CW":    ModeCW,
	"FM":    ModeFM,
	"RTTY":  ModeRTTY,
	"C4FM":  ModeC4FM,
	"PSK31": ModePSK31,
	"DSTAR": ModeDSTAR,
}

// ParseMode matches a user- or feed-supplied mode string, case-insensitively.
// Unrecognized non-empty strings are an error; feed parsing maps those to
// ModeUnknown instead via lookupMode.
func ParseMode(s string) (Mode, error) {
	m, ok := knownModes[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return ModeUnknown, fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// lookupMode is the lenient feed-side variant of ParseMode.
func lookupMode(s string) Mode {
	m, ok := knownModes[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return ModeUnknown
	}
	return m
}

func (m Mode) String() string {
	if m == ModeUnknown {
		return "unknown"
	}
	return string(m)
}
