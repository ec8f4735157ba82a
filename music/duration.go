package music

import (
	"math"
	"strconv"
	"strings"
)

// ParseDuration reads a note length for the event table, in seconds.
//
//	1.5 or 1.5s   seconds
//	250ms         milliseconds
//	1/4           a quarter of a whole note at bpm
//	1/8.          dotted (x1.5)
//	1/4t          triplet (x2/3)
func ParseDuration(text string, bpm float64) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	bad := func() (float64, error) {
		return 0, invalid(ErrInvalidDuration, "cannot parse duration "+strconv.Quote(text),
			"Use seconds (0.5, 500ms) or a note value (1/4, 1/8., 1/4t)")
	}
	if s == "" {
		return bad()
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		if bpm <= 0 {
			return bad()
		}
		factor := 1.0
		switch {
		case strings.HasSuffix(den, "."):
			factor, den = 1.5, strings.TrimSuffix(den, ".")
		case strings.HasSuffix(den, "t"):
			factor, den = 2.0/3.0, strings.TrimSuffix(den, "t")
		}
		n, err1 := strconv.Atoi(num)
		d, err2 := strconv.Atoi(den)
		if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
			return bad()
		}
		whole := 4 * 60 / bpm
		return whole * float64(n) / float64(d) * factor, nil
	}
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "ms"):
		scale, s = 0.001, strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		s = strings.TrimSuffix(s, "s")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return bad()
	}
	return v * scale, nil
}
