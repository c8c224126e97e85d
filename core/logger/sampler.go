package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

type ratio struct{ num, den uint64 }

// ratioSampler lets num out of every den events through. A nil ratio
// passes everything.
type ratioSampler struct {
	r    atomic.Pointer[ratio]
	seen atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio; non-positive values disable sampling.
func (s *ratioSampler) Set(num, den int) {
	s.seen.Store(0)
	if num <= 0 || den <= 0 {
		s.r.Store(nil)
		return
	}
	s.r.Store(&ratio{num: uint64(min(num, den)), den: uint64(den)})
}

// Allow reports whether the next event passes.
func (s *ratioSampler) Allow() bool {
	r := s.r.Load()
	if r == nil {
		return true
	}
	return (s.seen.Add(1)-1)%r.den < r.num
}

// parseRatioSpec accepts "n/d" or "d" (meaning 1/d). Anything else
// disables sampling.
func parseRatioSpec(spec string) (int, int) {
	n, d, frac := strings.Cut(strings.TrimSpace(spec), "/")
	if !frac {
		n, d = "1", n
	}
	num, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil {
		return 0, 0
	}
	den, err := strconv.Atoi(strings.TrimSpace(d))
	if err != nil || den <= 0 {
		return 0, 0
	}
	return num, den
}
