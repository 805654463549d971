package dataset

// DogMoveData CSV ingest and windowed table egress.
//
// The raw file carries a fixed set of bookkeeping columns (DogID, t_sec,
// TestNum, Task, the three behavior annotation columns, PointEvent); every
// other column is treated as a numeric sensor channel in header order. The
// loader is strict: a missing required column or a non-numeric channel cell
// fails the whole load with ErrMalformedInput. There is no partial-result
// mode.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"dogmove/pipeline"
)

// ErrMalformedInput marks a raw file that does not match the expected
// schema. It is fatal; the pipeline never recovers from a malformed input.
var ErrMalformedInput = errors.New("malformed input")

// Required bookkeeping columns of the raw schema.
const (
	ColDogID      = "DogID"
	ColTSec       = "t_sec"
	ColTestNum    = "TestNum"
	ColTask       = "Task"
	ColBehavior1  = "Behavior_1"
	ColBehavior2  = "Behavior_2"
	ColBehavior3  = "Behavior_3"
	ColPointEvent = "PointEvent"
)

var requiredColumns = []string{
	ColDogID, ColTSec, ColTestNum, ColTask,
	ColBehavior1, ColBehavior2, ColBehavior3, ColPointEvent,
}

// LoadRaw reads a raw movement dataset from a CSV file.
func LoadRaw(path string) (pipeline.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return pipeline.RawTable{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	table, err := LoadRawFromReader(file)
	if err != nil {
		return pipeline.RawTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// LoadRawFromReader reads a raw movement dataset from an io.Reader.
func LoadRawFromReader(r io.Reader) (pipeline.RawTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return pipeline.RawTable{}, fmt.Errorf("%w: unable to read header: %v", ErrMalformedInput, err)
	}

	indices := make(map[string]int, len(header))
	for i, name := range header {
		indices[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := indices[name]; !ok {
			return pipeline.RawTable{}, fmt.Errorf("%w: missing column %q", ErrMalformedInput, name)
		}
	}

	// Everything that is not bookkeeping is a sensor channel, in header order.
	required := make(map[string]bool, len(requiredColumns))
	for _, name := range requiredColumns {
		required[name] = true
	}
	var channelNames []string
	var channelIdx []int
	for i, name := range header {
		if required[name] {
			continue
		}
		channelNames = append(channelNames, name)
		channelIdx = append(channelIdx, i)
	}
	if len(channelNames) == 0 {
		return pipeline.RawTable{}, fmt.Errorf("%w: no sensor channel columns found", ErrMalformedInput)
	}

	table := pipeline.RawTable{ChannelNames: channelNames}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return pipeline.RawTable{}, fmt.Errorf("%w: row %d: %v", ErrMalformedInput, line+1, err)
		}
		line++

		tSec, err := strconv.ParseFloat(record[indices[ColTSec]], 64)
		if err != nil {
			return pipeline.RawTable{}, fmt.Errorf("%w: row %d: invalid %s value %q", ErrMalformedInput, line, ColTSec, record[indices[ColTSec]])
		}

		channels := make([]float64, len(channelIdx))
		for c, idx := range channelIdx {
			value, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return pipeline.RawTable{}, fmt.Errorf("%w: row %d: invalid %s value %q", ErrMalformedInput, line, channelNames[c], record[idx])
			}
			channels[c] = value
		}

		table.Records = append(table.Records, pipeline.RawRecord{
			DogID:      record[indices[ColDogID]],
			TSec:       tSec,
			TestNum:    record[indices[ColTestNum]],
			Task:       record[indices[ColTask]],
			Behavior1:  record[indices[ColBehavior1]],
			Behavior2:  record[indices[ColBehavior2]],
			Behavior3:  record[indices[ColBehavior3]],
			PointEvent: record[indices[ColPointEvent]],
			Channels:   channels,
		})
	}

	return table, nil
}

// SaveWindows writes a windowed feature table as CSV: one column per sensor
// channel followed by DogID and Behavior.
func SaveWindows(t pipeline.WindowTable, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteWindows(t, file); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteWindows writes a windowed feature table as CSV to an io.Writer.
func WriteWindows(t pipeline.WindowTable, w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(t.ChannelNames)+2)
	header = append(header, t.ChannelNames...)
	header = append(header, ColDogID, "Behavior")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(header))
	for _, wr := range t.Rows {
		for i, v := range wr.Channels {
			row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		row[len(t.ChannelNames)] = wr.DogID
		row[len(t.ChannelNames)+1] = wr.Behavior
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
