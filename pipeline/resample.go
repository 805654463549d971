package pipeline

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Class Balancing
//
// Behavior classes in the windowed table are heavily imbalanced (resting
// postures dominate, transient behaviors like jumping are rare). Before the
// table reaches a classifier every class is resampled to a common target
// size by drawing rows uniformly at random with replacement from each
// class group.
//
// The target size comes from a strategy:
//
//   - StrategyReference: the size of an explicitly named class. Downsampling
//     defaults to "Jumping" and upsampling to "Lying chest", the classes the
//     original dataset was balanced against.
//   - StrategyMin / StrategyMax: the smallest / largest class, computed from
//     the table itself rather than pinned to a class name.
//
// Groups are concatenated in sorted label order so the output row order is
// deterministic for a given seed. An unseeded run draws from a time-seeded
// generator and is not reproducible.

// ErrMissingReferenceClass is returned when the designated reference label
// is absent from the table being balanced.
var ErrMissingReferenceClass = errors.New("reference class not present in table")

// Strategy selects how the balancing target size is derived.
type Strategy int

const (
	// StrategyReference targets the size of an explicitly named class.
	StrategyReference Strategy = iota
	// StrategyMin targets the size of the smallest class.
	StrategyMin
	// StrategyMax targets the size of the largest class.
	StrategyMax
)

func (s Strategy) String() string {
	switch s {
	case StrategyReference:
		return "reference"
	case StrategyMin:
		return "min"
	case StrategyMax:
		return "max"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Default reference classes of the original dataset preparation.
const (
	DefaultDownsampleReference = "Jumping"
	DefaultUpsampleReference   = "Lying chest"
)

// ResampleOptions configures one balancing pass. A zero value keeps the
// original behavior: reference strategy with the per-direction default
// class, time-seeded randomness.
type ResampleOptions struct {
	Strategy  Strategy
	Reference string // reference label; empty selects the per-direction default
	Seed      int64  // 0 seeds from the current time (non-reproducible)
}

// Downsample resamples every behavior group down to the target size.
func Downsample(t WindowTable, opts ResampleOptions) (WindowTable, error) {
	return resample(t, opts, DefaultDownsampleReference)
}

// Upsample resamples every behavior group up to the target size.
func Upsample(t WindowTable, opts ResampleOptions) (WindowTable, error) {
	return resample(t, opts, DefaultUpsampleReference)
}

func resample(t WindowTable, opts ResampleOptions, defaultReference string) (WindowTable, error) {
	groups := SplitByBehavior(t)
	if len(groups) == 0 {
		return WindowTable{ChannelNames: t.ChannelNames}, nil
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	target, err := targetSize(groups, labels, opts, defaultReference)
	if err != nil {
		return WindowTable{}, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	out := WindowTable{
		ChannelNames: t.ChannelNames,
		Rows:         make([]WindowRow, 0, target*len(labels)),
	}
	for _, label := range labels {
		group := groups[label]
		for i := 0; i < target; i++ {
			out.Rows = append(out.Rows, group[rng.Intn(len(group))])
		}
	}
	return out, nil
}

func targetSize(groups map[string][]WindowRow, labels []string, opts ResampleOptions, defaultReference string) (int, error) {
	switch opts.Strategy {
	case StrategyReference:
		reference := opts.Reference
		if reference == "" {
			reference = defaultReference
		}
		group, ok := groups[reference]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingReferenceClass, reference)
		}
		return len(group), nil
	case StrategyMin:
		n := len(groups[labels[0]])
		for _, label := range labels[1:] {
			if len(groups[label]) < n {
				n = len(groups[label])
			}
		}
		return n, nil
	case StrategyMax:
		n := len(groups[labels[0]])
		for _, label := range labels[1:] {
			if len(groups[label]) > n {
				n = len(groups[label])
			}
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unknown resampling strategy %v", opts.Strategy)
	}
}

// SplitByBehavior partitions the table rows by behavior label, preserving
// row order within each group. An empty table yields an empty map.
func SplitByBehavior(t WindowTable) map[string][]WindowRow {
	groups := make(map[string][]WindowRow)
	for _, row := range t.Rows {
		groups[row.Behavior] = append(groups[row.Behavior], row)
	}
	return groups
}
