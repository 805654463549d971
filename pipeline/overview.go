package pipeline

import (
	"fmt"
	"io"
	"sort"

	"github.com/montanaflynn/stats"
)

// BehaviorCount pairs a behavior label with its record count.
type BehaviorCount struct {
	Behavior string
	Count    int
}

// ChannelSummary describes the scale of one sensor channel across the
// dataset. Channels with wildly different scales are a hint that the
// windowed output should be standardized before classification.
type ChannelSummary struct {
	Name string
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

// SeriesOverview summarises a cleaned series: row counts, the behavior class
// distribution and per-channel scales.
type SeriesOverview struct {
	RecordCount    int
	DogCount       int
	BehaviorCounts []BehaviorCount
	Channels       []ChannelSummary
}

// Overview computes a summary of the series.
func Overview(s Series) (SeriesOverview, error) {
	dogs := make(map[string]bool)
	behaviorCounts := make(map[string]int)
	columns := make([][]float64, len(s.ChannelNames))
	for i := range columns {
		columns[i] = make([]float64, 0, len(s.Records))
	}

	for _, r := range s.Records {
		dogs[r.DogID] = true
		behaviorCounts[r.Behavior]++
		for c, v := range r.Channels {
			columns[c] = append(columns[c], v)
		}
	}

	channels, err := summariseChannels(s.ChannelNames, columns)
	if err != nil {
		return SeriesOverview{}, err
	}

	return SeriesOverview{
		RecordCount:    len(s.Records),
		DogCount:       len(dogs),
		BehaviorCounts: sortedBehaviorCounts(behaviorCounts),
		Channels:       channels,
	}, nil
}

// OverviewWindows computes the same summary over a windowed table.
func OverviewWindows(t WindowTable) (SeriesOverview, error) {
	dogs := make(map[string]bool)
	behaviorCounts := make(map[string]int)
	columns := make([][]float64, len(t.ChannelNames))
	for i := range columns {
		columns[i] = make([]float64, 0, len(t.Rows))
	}

	for _, row := range t.Rows {
		dogs[row.DogID] = true
		behaviorCounts[row.Behavior]++
		for c, v := range row.Channels {
			columns[c] = append(columns[c], v)
		}
	}

	channels, err := summariseChannels(t.ChannelNames, columns)
	if err != nil {
		return SeriesOverview{}, err
	}

	return SeriesOverview{
		RecordCount:    len(t.Rows),
		DogCount:       len(dogs),
		BehaviorCounts: sortedBehaviorCounts(behaviorCounts),
		Channels:       channels,
	}, nil
}

func summariseChannels(names []string, columns [][]float64) ([]ChannelSummary, error) {
	summaries := make([]ChannelSummary, 0, len(names))
	for i, name := range names {
		if len(columns[i]) == 0 {
			summaries = append(summaries, ChannelSummary{Name: name})
			continue
		}
		min, err := stats.Min(columns[i])
		if err != nil {
			return nil, fmt.Errorf("min of channel %s: %w", name, err)
		}
		max, err := stats.Max(columns[i])
		if err != nil {
			return nil, fmt.Errorf("max of channel %s: %w", name, err)
		}
		mean, err := stats.Mean(columns[i])
		if err != nil {
			return nil, fmt.Errorf("mean of channel %s: %w", name, err)
		}
		std, err := stats.StandardDeviation(columns[i])
		if err != nil {
			return nil, fmt.Errorf("stddev of channel %s: %w", name, err)
		}
		summaries = append(summaries, ChannelSummary{Name: name, Min: min, Max: max, Mean: mean, Std: std})
	}
	return summaries, nil
}

func sortedBehaviorCounts(counts map[string]int) []BehaviorCount {
	out := make([]BehaviorCount, 0, len(counts))
	for behavior, count := range counts {
		out = append(out, BehaviorCount{Behavior: behavior, Count: count})
	}
	// most frequent first, label order on ties
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Behavior < out[j].Behavior
	})
	return out
}

// WriteReport renders the overview as a fixed-width text report.
func (o SeriesOverview) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "Records: %d  Dogs: %d  Behaviors: %d\n", o.RecordCount, o.DogCount, len(o.BehaviorCounts))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Behavior distribution:")
	for _, bc := range o.BehaviorCounts {
		share := 0.0
		if o.RecordCount > 0 {
			share = float64(bc.Count) / float64(o.RecordCount) * 100
		}
		fmt.Fprintf(w, "  %-24s %8d  (%5.1f%%)\n", bc.Behavior, bc.Count, share)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-16s %12s %12s %12s %12s\n", "Channel", "Min", "Max", "Mean", "Std")
	fmt.Fprintln(w, "------------------------------------------------------------------")
	for _, ch := range o.Channels {
		fmt.Fprintf(w, "%-16s %12.6f %12.6f %12.6f %12.6f\n", ch.Name, ch.Min, ch.Max, ch.Mean, ch.Std)
	}
}
