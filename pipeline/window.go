package pipeline

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Sliding Window Aggregation
//
// The cleaned series is compressed into fixed-size feature windows for the
// downstream classifier. The windower slides a window of WindowSize
// consecutive records over the series at StepSize offsets and emits one row
// per window:
//
// 1. For each sensor channel, the arithmetic mean of the WindowSize values
//    starting at the offset.
// 2. The modal DogID and modal Behavior over the same span. Ties on the mode
//    are broken deterministically in favour of the value that appears first
//    in the span.
//
// Windows start at offset 0 and advance by StepSize while
// offset < len(series) - WindowSize, so no partial or zero-padded window is
// ever emitted; a series no longer than one window produces zero rows. The
// window count before balancing is therefore max(0, ceil((L-w)/s)).
//
// Class balancing is the integral final step of windowing: unless disabled,
// the emitted table is resampled so every behavior class has equal
// representation before it is returned.

// BalanceMode selects the resampling direction applied after windowing.
type BalanceMode int

const (
	// BalanceUp resamples every class up to the reference class size.
	BalanceUp BalanceMode = iota
	// BalanceDown resamples every class down to the reference class size.
	BalanceDown
	// BalanceNone skips resampling and returns the raw windowed table.
	BalanceNone
)

func (m BalanceMode) String() string {
	switch m {
	case BalanceUp:
		return "up"
	case BalanceDown:
		return "down"
	case BalanceNone:
		return "none"
	default:
		return fmt.Sprintf("BalanceMode(%d)", int(m))
	}
}

// WindowConfig holds the windowing parameters together with the balancing
// policy applied to the result.
type WindowConfig struct {
	WindowSize int
	StepSize   int
	Balance    BalanceMode
	Resample   ResampleOptions
}

// DefaultWindowConfig mirrors the parameters the dataset was originally
// prepared with: 100-sample windows at 50-sample steps, upsampled to the
// default reference class.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		WindowSize: 100,
		StepSize:   50,
		Balance:    BalanceUp,
	}
}

// WindowCount returns the number of windows emitted for a series of length
// n, before balancing.
func (cfg WindowConfig) WindowCount(n int) int {
	span := n - cfg.WindowSize
	if span <= 0 {
		return 0
	}
	return (span + cfg.StepSize - 1) / cfg.StepSize
}

func (cfg WindowConfig) validate() error {
	if cfg.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", cfg.WindowSize)
	}
	if cfg.StepSize <= 0 {
		return fmt.Errorf("step size must be positive, got %d", cfg.StepSize)
	}
	return nil
}

// ApplyWindowing aggregates the series into windowed feature rows and runs
// the configured class balancing over the result. A series that does not
// cover more than one full window yields an empty table (balancing is
// skipped, not failed, in that case).
func ApplyWindowing(s Series, cfg WindowConfig) (WindowTable, error) {
	if err := cfg.validate(); err != nil {
		return WindowTable{}, err
	}

	names := make([]string, len(s.ChannelNames))
	copy(names, s.ChannelNames)

	table := WindowTable{ChannelNames: names}
	for offset := 0; offset < len(s.Records)-cfg.WindowSize; offset += cfg.StepSize {
		span := s.Records[offset : offset+cfg.WindowSize]

		row := WindowRow{Channels: make([]float64, len(s.ChannelNames))}
		for c := range s.ChannelNames {
			values := make([]float64, len(span))
			for i, r := range span {
				values[i] = r.Channels[c]
			}
			mean, err := stats.Mean(values)
			if err != nil {
				return WindowTable{}, fmt.Errorf("mean of channel %s at offset %d: %w", s.ChannelNames[c], offset, err)
			}
			row.Channels[c] = mean
		}

		dogs := make([]string, len(span))
		behaviors := make([]string, len(span))
		for i, r := range span {
			dogs[i] = r.DogID
			behaviors[i] = r.Behavior
		}
		row.DogID = modeString(dogs)
		row.Behavior = modeString(behaviors)

		table.Rows = append(table.Rows, row)
	}

	if cfg.Balance == BalanceNone || len(table.Rows) == 0 {
		return table, nil
	}

	switch cfg.Balance {
	case BalanceUp:
		return Upsample(table, cfg.Resample)
	case BalanceDown:
		return Downsample(table, cfg.Resample)
	default:
		return WindowTable{}, fmt.Errorf("unknown balance mode %v", cfg.Balance)
	}
}

// modeString returns the most frequent value; ties are broken in favour of
// the value whose first occurrence comes earliest.
func modeString(values []string) string {
	if len(values) == 0 {
		return ""
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[0]
	bestCount := counts[best]
	seen := map[string]bool{best: true}
	for _, v := range values[1:] {
		if seen[v] {
			continue
		}
		seen[v] = true
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}
