// Package indicators provides streaming technical indicators over daily
// closes. All indicators are deterministic and single-writer; strategies keep
// one instance per instrument code.
package indicators

import "fmt"

// Indicator computes a single streaming value from a series of closes.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next close.
	Update(close float64)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current indicator value, 0 when not Ready.
	Value() float64
}

// SimpleMA is a streaming simple moving average over the last N closes.
type SimpleMA struct {
	period int
	closes []float64
}

func NewSMA(period int) *SimpleMA {
	if period < 1 {
		period = 1
	}
	return &SimpleMA{
		period: period,
		closes: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.closes = m.closes[:0]
}

func (m *SimpleMA) Update(close float64) {
	m.closes = append(m.closes, close)
	if len(m.closes) > m.period {
		m.closes = m.closes[1:]
	}
}

func (m *SimpleMA) Ready() bool {
	return len(m.closes) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, c := range m.closes {
		sum += c
	}
	return sum / float64(len(m.closes))
}

// ExponentialMA is a streaming exponential moving average. It seeds itself
// with an SMA over the first period closes, then applies the EMA recurrence.
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

func NewEMA(period int) *ExponentialMA {
	if period < 1 {
		period = 1
	}
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(close float64) {
	if e.count < e.period {
		e.warmupSum += close
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (close-e.ema)*e.multiplier + e.ema
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}
