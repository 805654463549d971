package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dogmove/pipeline"
)

const rawCSV = `DogID,t_sec,TestNum,Task,Behavior_1,Behavior_2,Behavior_3,PointEvent,ANeck_x,ANeck_y
dog1,0.01,1,task A,Walking,<undefined>,<undefined>,,0.1,-0.2
dog1,0.02,1,task A,<undefined>,Sitting,<undefined>,,0.3,0.4
dog2,0.01,2,task B,<undefined>,<undefined>,<undefined>,,-0.5,0.6
`

func TestLoadRawFromReader(t *testing.T) {
	t.Parallel()

	table, err := LoadRawFromReader(strings.NewReader(rawCSV))
	if err != nil {
		t.Fatalf("LoadRawFromReader returned error: %v", err)
	}

	if len(table.ChannelNames) != 2 || table.ChannelNames[0] != "ANeck_x" || table.ChannelNames[1] != "ANeck_y" {
		t.Fatalf("unexpected channel names: %v", table.ChannelNames)
	}
	if len(table.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(table.Records))
	}

	first := table.Records[0]
	if first.DogID != "dog1" || first.TSec != 0.01 || first.Behavior1 != "Walking" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Channels[0] != 0.1 || first.Channels[1] != -0.2 {
		t.Fatalf("unexpected channel values: %v", first.Channels)
	}
	if table.Records[2].Behavior3 != pipeline.UndefinedBehavior {
		t.Fatalf("sentinel not preserved: %+v", table.Records[2])
	}
}

func TestLoadRawMissingColumn(t *testing.T) {
	t.Parallel()

	// No Behavior_3 column.
	input := `DogID,t_sec,TestNum,Task,Behavior_1,Behavior_2,PointEvent,ANeck_x
dog1,0.01,1,task A,Walking,<undefined>,,0.1
`
	_, err := LoadRawFromReader(strings.NewReader(input))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "Behavior_3") {
		t.Fatalf("error should name the missing column: %v", err)
	}
}

func TestLoadRawNonNumericChannel(t *testing.T) {
	t.Parallel()

	input := `DogID,t_sec,TestNum,Task,Behavior_1,Behavior_2,Behavior_3,PointEvent,ANeck_x
dog1,0.01,1,task A,Walking,<undefined>,<undefined>,,not-a-number
`
	_, err := LoadRawFromReader(strings.NewReader(input))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestLoadRawWithoutChannels(t *testing.T) {
	t.Parallel()

	input := `DogID,t_sec,TestNum,Task,Behavior_1,Behavior_2,Behavior_3,PointEvent
dog1,0.01,1,task A,Walking,<undefined>,<undefined>,
`
	_, err := LoadRawFromReader(strings.NewReader(input))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput for channel-less file, got %v", err)
	}
}

func TestSaveWindowsRoundTrip(t *testing.T) {
	t.Parallel()

	table := pipeline.WindowTable{
		ChannelNames: []string{"ANeck_x", "ANeck_y"},
		Rows: []pipeline.WindowRow{
			{Channels: []float64{0.25, -1.5}, DogID: "dog1", Behavior: "Walking"},
			{Channels: []float64{2, 3}, DogID: "dog2", Behavior: "Sitting"},
		},
	}

	path := filepath.Join(t.TempDir(), "windows.csv")
	if err := SaveWindows(table, path); err != nil {
		t.Fatalf("SaveWindows returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ANeck_x,ANeck_y,DogID,Behavior" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if lines[1] != "0.25,-1.5,dog1,Walking" {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
}
