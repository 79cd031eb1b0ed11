// ABOUTME: Polled user controls for the echo effect
// ABOUTME: Decay-factor and echo-enable sources with fixed, knob and ADC variants
package control

import (
	"math"
	"sync/atomic"
)

// ADCFullScale is the maximum reading of a 12-bit converter
const ADCFullScale = 4095

// DecaySource yields the echo attenuation in [0.0, 1.0]
type DecaySource interface {
	Sample() float64
}

// EnableSource reports whether the echo is switched on
type EnableSource interface {
	IsEnabled() bool
}

// Decay is a constant decay factor
type Decay float64

// Sample returns the clamped constant
func (d Decay) Sample() float64 { return clampUnit(float64(d)) }

// Enabled is a constant switch position
type Enabled bool

// IsEnabled returns the switch position
func (e Enabled) IsEnabled() bool { return bool(e) }

// Knob is a decay factor adjusted at runtime from another goroutine
type Knob struct {
	bits atomic.Uint64
}

// NewKnob creates a knob at the given position
func NewKnob(value float64) *Knob {
	k := &Knob{}
	k.Set(value)
	return k
}

// Set moves the knob, clamping to [0, 1]
func (k *Knob) Set(value float64) {
	k.bits.Store(math.Float64bits(clampUnit(value)))
}

// Nudge moves the knob by delta and returns the new position
func (k *Knob) Nudge(delta float64) float64 {
	for {
		old := k.bits.Load()
		next := clampUnit(math.Float64frombits(old) + delta)
		if k.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// Sample returns the knob position
func (k *Knob) Sample() float64 {
	return math.Float64frombits(k.bits.Load())
}

// Switch is an echo enable toggled at runtime from another goroutine
type Switch struct {
	on atomic.Bool
}

// NewSwitch creates a switch in the given position
func NewSwitch(on bool) *Switch {
	s := &Switch{}
	s.on.Store(on)
	return s
}

// Set moves the switch
func (s *Switch) Set(on bool) { s.on.Store(on) }

// Toggle flips the switch and returns the new position
func (s *Switch) Toggle() bool {
	for {
		old := s.on.Load()
		if s.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsEnabled returns the switch position
func (s *Switch) IsEnabled() bool { return s.on.Load() }

// ADC converts raw 12-bit conversions into a decay factor. Read is polled
// once per Sample; ok=false keeps the previous factor, like a conversion
// that timed out.
type ADC struct {
	Read func() (raw uint16, ok bool)

	last atomic.Uint64
}

// NewADC creates an ADC source starting at the given factor
func NewADC(read func() (uint16, bool), initial float64) *ADC {
	a := &ADC{Read: read}
	a.last.Store(math.Float64bits(clampUnit(initial)))
	return a
}

// Sample performs one conversion
func (a *ADC) Sample() float64 {
	if a.Read != nil {
		if raw, ok := a.Read(); ok {
			a.last.Store(math.Float64bits(FromADC(raw)))
		}
	}
	return math.Float64frombits(a.last.Load())
}

// FromADC scales a raw 12-bit reading to [0, 1]
func FromADC(raw uint16) float64 {
	if raw > ADCFullScale {
		raw = ADCFullScale
	}
	return float64(raw) / ADCFullScale
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
