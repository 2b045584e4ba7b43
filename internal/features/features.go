package features

import (
	"fmt"
	"math"
	"time"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/pkg/contracts/domain"
)

// Kind identifies a feature transform.
type Kind string

const (
	// KindReturn is the simple one-period return.
	KindReturn Kind = "return"
	// KindSMA is the rolling arithmetic mean of close prices.
	KindSMA Kind = "sma"
	// KindStdDev is the rolling standard deviation of close prices.
	KindStdDev Kind = "stddev"
	// KindMomentum is the close-price change across the window.
	KindMomentum Kind = "momentum"
	// KindRSI is a relative-strength-style oscillator in [0, 100].
	KindRSI Kind = "rsi"
	// KindDirection is the binary up/down label (1 when close rose over the
	// window). Used as the default model target.
	KindDirection Kind = "direction"
)

// Definition describes one requested feature.
type Definition struct {
	Name   string
	Kind   Kind
	Window int
}

// DefinitionsFrom converts configured features into definitions.
func DefinitionsFrom(cfgs []config.FeatureConfig) []Definition {
	defs := make([]Definition, len(cfgs))
	for i, fc := range cfgs {
		defs[i] = Definition{Name: fc.Name, Kind: Kind(fc.Kind), Window: fc.Window}
	}
	return defs
}

// Set is a feature matrix aligned to the tail of one instrument's series.
// All columns share the same length; Offset is the number of leading series
// observations consumed by rolling windows.
type Set struct {
	Ticker     string
	Offset     int
	Timestamps []time.Time
	names      []string
	columns    map[string][]float64
}

// Rows returns the number of aligned observations.
func (s *Set) Rows() int {
	return len(s.Timestamps)
}

// Names returns the feature names in definition order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Column returns the values for one feature and whether it exists.
func (s *Set) Column(name string) ([]float64, bool) {
	col, ok := s.columns[name]
	return col, ok
}

// Compute derives the requested features from a canonical series. Every
// column is truncated to the shortest produced length so the set stays
// aligned; a series shorter than the largest window yields a zero-row set,
// which the caller reports as insufficient data.
// ValidateDefinitions checks a feature list without touching data, so
// configuration faults surface once instead of per instrument.
func ValidateDefinitions(defs []Definition) error {
	if len(defs) == 0 {
		return &apperrors.ConfigurationError{Field: "features", Message: "no features configured"}
	}
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Window < 1 {
			return apperrors.NewConfigurationError(
				"features", fmt.Sprintf("feature %q: window must be positive, got %d", def.Name, def.Window))
		}
		if seen[def.Name] {
			return apperrors.NewConfigurationError(
				"features", fmt.Sprintf("duplicate feature name %q", def.Name))
		}
		seen[def.Name] = true
		switch def.Kind {
		case KindReturn, KindSMA, KindStdDev, KindMomentum, KindRSI, KindDirection:
		default:
			return apperrors.NewConfigurationError(
				"features", fmt.Sprintf("feature %q: unknown kind %q", def.Name, def.Kind))
		}
	}
	return nil
}

func Compute(series *domain.InstrumentSeries, defs []Definition) (*Set, error) {
	if len(defs) == 0 {
		return nil, &apperrors.ConfigurationError{Field: "features", Message: "no features configured"}
	}

	closes := series.Closes()
	n := len(closes)

	type computed struct {
		name   string
		values []float64
	}
	cols := make([]computed, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	shortest := n
	for _, def := range defs {
		if def.Window < 1 {
			return nil, apperrors.NewConfigurationError(
				"features", fmt.Sprintf("feature %q: window must be positive, got %d", def.Name, def.Window))
		}
		if seen[def.Name] {
			return nil, apperrors.NewConfigurationError(
				"features", fmt.Sprintf("duplicate feature name %q", def.Name))
		}
		seen[def.Name] = true

		values, err := transform(def, closes)
		if err != nil {
			return nil, err
		}
		if len(values) < shortest {
			shortest = len(values)
		}
		cols = append(cols, computed{name: def.Name, values: values})
	}

	set := &Set{
		Ticker:  series.Ticker,
		Offset:  n - shortest,
		columns: make(map[string][]float64, len(cols)),
	}
	for _, c := range cols {
		// Keep the tail so every column ends on the series' last observation.
		set.columns[c.name] = c.values[len(c.values)-shortest:]
		set.names = append(set.names, c.name)
	}
	set.Timestamps = series.Timestamps()[set.Offset:]

	return set, nil
}

// transform computes one feature column. A window of w over n observations
// produces max(n-w+1, 0) values, each aligned to the window's last timestamp.
func transform(def Definition, closes []float64) ([]float64, error) {
	w := def.Window
	n := len(closes)
	rows := n - w + 1
	if rows < 0 {
		rows = 0
	}
	out := make([]float64, 0, rows)

	switch def.Kind {
	case KindReturn:
		for i := w - 1; i < n; i++ {
			prev := closes[i-w+1]
			if prev == 0 {
				out = append(out, 0)
				continue
			}
			out = append(out, (closes[i]-prev)/prev)
		}

	case KindSMA:
		var sum float64
		for i := 0; i < n; i++ {
			sum += closes[i]
			if i >= w {
				sum -= closes[i-w]
			}
			if i >= w-1 {
				out = append(out, sum/float64(w))
			}
		}

	case KindStdDev:
		for i := w - 1; i < n; i++ {
			out = append(out, stddev(closes[i-w+1:i+1]))
		}

	case KindMomentum:
		for i := w - 1; i < n; i++ {
			out = append(out, closes[i]-closes[i-w+1])
		}

	case KindRSI:
		out = rsi(closes, w)

	case KindDirection:
		for i := w - 1; i < n; i++ {
			if closes[i] >= closes[i-w+1] {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}

	default:
		return nil, apperrors.NewConfigurationError(
			"features", fmt.Sprintf("feature %q: unknown kind %q", def.Name, def.Kind))
	}

	return out, nil
}

// stddev is the population standard deviation.
func stddev(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	var sq float64
	for _, v := range window {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(window)))
}

// rsi computes a w-period relative strength index using simple averages of
// gains and losses over the trailing window.
func rsi(closes []float64, w int) []float64 {
	n := len(closes)
	rows := n - w + 1
	if rows <= 0 {
		return nil
	}

	out := make([]float64, 0, rows)
	for i := w - 1; i < n; i++ {
		var gain, loss float64
		for j := i - w + 2; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		switch {
		case loss == 0 && gain == 0:
			out = append(out, 50)
		case loss == 0:
			out = append(out, 100)
		default:
			rs := gain / loss
			out = append(out, 100-100/(1+rs))
		}
	}
	return out
}
