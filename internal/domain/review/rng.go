package review

// lcg is a 64-bit linear congruential generator (Knuth MMIX constants).
// It exists so seeded selections replay identically across runs, which the
// shared math/rand generators do not guarantee across Go versions.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	// Avoid the all-zero state producing a leading zero draw.
	return &lcg{state: seed*6364136223846793005 + 1442695040888963407}
}

func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

// Float64 returns a uniform draw in the open interval (0, 1).
func (l *lcg) Float64() float64 {
	// Use the high 53 bits; map 0 to the smallest representable step to
	// keep the draw strictly positive for the sampling exponent.
	v := l.next() >> 11
	if v == 0 {
		v = 1
	}
	return float64(v) / (1 << 53)
}
