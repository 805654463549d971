package pipeline

import (
	"errors"
	"math"
	"testing"
)

func TestWindowCountFormula(t *testing.T) {
	t.Parallel()

	cases := []struct {
		length int
		window int
		step   int
		want   int
	}{
		{length: 4, window: 2, step: 1, want: 2},  // offsets 0, 1
		{length: 5, window: 2, step: 1, want: 3},  // offsets 0, 1, 2
		{length: 10, window: 4, step: 3, want: 2}, // offsets 0, 3
		{length: 100, window: 100, step: 50, want: 0},
		{length: 99, window: 100, step: 50, want: 0},
		{length: 101, window: 100, step: 50, want: 1},
		{length: 250, window: 100, step: 50, want: 3},
	}

	for _, tc := range cases {
		cfg := WindowConfig{WindowSize: tc.window, StepSize: tc.step, Balance: BalanceNone}
		if got := cfg.WindowCount(tc.length); got != tc.want {
			t.Errorf("WindowCount(L=%d, w=%d, s=%d) = %d, want %d", tc.length, tc.window, tc.step, got, tc.want)
		}

		series := syntheticSeries(tc.length, "Walking")
		table, err := ApplyWindowing(series, cfg)
		if err != nil {
			t.Fatalf("ApplyWindowing(L=%d, w=%d, s=%d) returned error: %v", tc.length, tc.window, tc.step, err)
		}
		if len(table.Rows) != tc.want {
			t.Errorf("ApplyWindowing(L=%d, w=%d, s=%d) produced %d rows, want %d", tc.length, tc.window, tc.step, len(table.Rows), tc.want)
		}
	}
}

func TestWindowMeansAreArithmeticMeans(t *testing.T) {
	t.Parallel()

	// Channel values 1..5 with w=2, s=1 emit offsets 0, 1, 2 and means
	// 1.5, 2.5, 3.5.
	series := Series{ChannelNames: []string{"ANeck_x"}}
	for i := 1; i <= 5; i++ {
		series.Records = append(series.Records, Record{
			DogID:    "dog1",
			TSec:     float64(i),
			Channels: []float64{float64(i)},
			Behavior: "Walking",
		})
	}

	table, err := ApplyWindowing(series, WindowConfig{WindowSize: 2, StepSize: 1, Balance: BalanceNone})
	if err != nil {
		t.Fatalf("ApplyWindowing returned error: %v", err)
	}

	want := []float64{1.5, 2.5, 3.5}
	if len(table.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(table.Rows))
	}
	for i, row := range table.Rows {
		if math.Abs(row.Channels[0]-want[i]) > 1e-12 {
			t.Errorf("window %d mean = %f, want %f", i, row.Channels[0], want[i])
		}
	}
}

func TestWindowModalLabelMajority(t *testing.T) {
	t.Parallel()

	series := Series{ChannelNames: []string{"ANeck_x"}}
	for i, behavior := range []string{"Walking", "Walking", "Sitting"} {
		series.Records = append(series.Records, Record{
			DogID:    "dog1",
			TSec:     float64(i),
			Channels: []float64{0},
			Behavior: behavior,
		})
	}
	// One extra record so the 3-wide window at offset 0 is emitted.
	series.Records = append(series.Records, Record{DogID: "dog1", TSec: 3, Channels: []float64{0}, Behavior: "Sitting"})

	table, err := ApplyWindowing(series, WindowConfig{WindowSize: 3, StepSize: 3, Balance: BalanceNone})
	if err != nil {
		t.Fatalf("ApplyWindowing returned error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(table.Rows))
	}
	if table.Rows[0].Behavior != "Walking" {
		t.Fatalf("modal behavior = %q, want Walking", table.Rows[0].Behavior)
	}
}

func TestWindowModalDogID(t *testing.T) {
	t.Parallel()

	series := Series{ChannelNames: []string{"ANeck_x"}}
	dogs := []string{"dog2", "dog2", "dog1", "dog2"}
	for i, dog := range dogs {
		series.Records = append(series.Records, Record{
			DogID:    dog,
			TSec:     float64(i),
			Channels: []float64{0},
			Behavior: "Walking",
		})
	}
	series.Records = append(series.Records, Record{DogID: "dog1", TSec: 4, Channels: []float64{0}, Behavior: "Walking"})

	table, err := ApplyWindowing(series, WindowConfig{WindowSize: 4, StepSize: 4, Balance: BalanceNone})
	if err != nil {
		t.Fatalf("ApplyWindowing returned error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(table.Rows))
	}
	if table.Rows[0].DogID != "dog2" {
		t.Fatalf("modal dog = %q, want dog2", table.Rows[0].DogID)
	}
}

func TestModeStringTieBreaksOnFirstOccurrence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		values []string
		want   string
	}{
		{[]string{"Walking", "Walking", "Sitting"}, "Walking"},
		{[]string{"Sitting", "Walking", "Walking", "Sitting"}, "Sitting"},
		{[]string{"a", "b"}, "a"},
		{[]string{"b", "a", "a", "b"}, "b"},
		{[]string{"only"}, "only"},
	}
	for _, tc := range cases {
		if got := modeString(tc.values); got != tc.want {
			t.Errorf("modeString(%v) = %q, want %q", tc.values, got, tc.want)
		}
	}
}

func TestApplyWindowingRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	series := syntheticSeries(10, "Walking")
	for _, cfg := range []WindowConfig{
		{WindowSize: 0, StepSize: 1},
		{WindowSize: 2, StepSize: 0},
		{WindowSize: -1, StepSize: -1},
	} {
		if _, err := ApplyWindowing(series, cfg); err == nil {
			t.Errorf("expected error for config %+v", cfg)
		}
	}
}

func TestApplyWindowingSeriesEqualToWindowEmitsNothing(t *testing.T) {
	t.Parallel()

	series := syntheticSeries(100, "Walking")
	table, err := ApplyWindowing(series, WindowConfig{WindowSize: 100, StepSize: 50, Balance: BalanceUp})
	if err != nil {
		t.Fatalf("ApplyWindowing returned error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected 0 windows, got %d", len(table.Rows))
	}
}

func TestApplyWindowingBalancesAsFinalStep(t *testing.T) {
	t.Parallel()

	// Two behaviors, windows sized so each window is uniform in label.
	series := Series{ChannelNames: []string{"ANeck_x"}}
	for i := 0; i < 8; i++ {
		series.Records = append(series.Records, Record{DogID: "dog1", TSec: float64(i), Channels: []float64{1}, Behavior: "Walking"})
	}
	for i := 8; i < 13; i++ {
		series.Records = append(series.Records, Record{DogID: "dog1", TSec: float64(i), Channels: []float64{2}, Behavior: "Jumping"})
	}

	cfg := WindowConfig{
		WindowSize: 2,
		StepSize:   2,
		Balance:    BalanceUp,
		Resample:   ResampleOptions{Reference: "Walking", Seed: 7},
	}
	table, err := ApplyWindowing(series, cfg)
	if err != nil {
		t.Fatalf("ApplyWindowing returned error: %v", err)
	}

	groups := SplitByBehavior(table)
	if len(groups) != 2 {
		t.Fatalf("expected 2 behavior groups, got %d", len(groups))
	}
	walking := len(groups["Walking"])
	for behavior, rows := range groups {
		if len(rows) != walking {
			t.Errorf("group %q has %d rows, want %d", behavior, len(rows), walking)
		}
	}
}

func TestApplyWindowingMissingReferenceClass(t *testing.T) {
	t.Parallel()

	series := syntheticSeries(10, "Walking")
	cfg := WindowConfig{WindowSize: 2, StepSize: 2, Balance: BalanceUp}

	// The default upsample reference ("Lying chest") never appears.
	_, err := ApplyWindowing(series, cfg)
	if !errors.Is(err, ErrMissingReferenceClass) {
		t.Fatalf("expected ErrMissingReferenceClass, got %v", err)
	}
}

// syntheticSeries builds a single-dog, single-channel series of the given
// length with one shared behavior label.
func syntheticSeries(length int, behavior string) Series {
	series := Series{ChannelNames: []string{"ANeck_x"}}
	for i := 0; i < length; i++ {
		series.Records = append(series.Records, Record{
			DogID:    "dog1",
			TSec:     float64(i),
			Channels: []float64{float64(i)},
			Behavior: behavior,
		})
	}
	return series
}
