package dataset

// Per-dog metadata lookup. The movement records only carry a DogID; weight,
// age and gender live in a separate table indexed by that ID. Enrichment is
// an optional collaborator of the pipeline, not part of its core: when
// enabled, the numeric fields are appended to every record as additional
// sensor channels so they survive windowing like any other feature. Gender
// is categorical and cannot be window-averaged, so it is exposed through
// Lookup only.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"dogmove/pipeline"
)

// ErrUnknownEntity is returned when a DogID has no metadata entry.
var ErrUnknownEntity = errors.New("unknown dog id")

// DogInfo describes one dog.
type DogInfo struct {
	WeightKg  float64
	AgeMonths float64
	Gender    string
}

// DogInfoStore resolves DogIDs to their metadata.
type DogInfoStore struct {
	byID map[string]DogInfo
}

// LoadDogInfo reads a dog metadata table from a CSV file with columns
// DogID, Weight, Age months, Gender.
func LoadDogInfo(path string) (*DogInfoStore, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	store, err := LoadDogInfoFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// LoadDogInfoFromReader reads a dog metadata table from an io.Reader.
func LoadDogInfoFromReader(r io.Reader) (*DogInfoStore, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read header: %v", ErrMalformedInput, err)
	}

	idIdx, weightIdx, ageIdx, genderIdx := -1, -1, -1, -1
	for i, name := range header {
		switch name {
		case ColDogID:
			idIdx = i
		case "Weight":
			weightIdx = i
		case "Age months":
			ageIdx = i
		case "Gender":
			genderIdx = i
		}
	}
	if idIdx < 0 || weightIdx < 0 || ageIdx < 0 || genderIdx < 0 {
		return nil, fmt.Errorf("%w: dog info requires DogID, Weight, Age months and Gender columns", ErrMalformedInput)
	}

	byID := make(map[string]DogInfo)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedInput, line+1, err)
		}
		line++

		weight, err := strconv.ParseFloat(record[weightIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid Weight value %q", ErrMalformedInput, line, record[weightIdx])
		}
		age, err := strconv.ParseFloat(record[ageIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid Age months value %q", ErrMalformedInput, line, record[ageIdx])
		}

		byID[record[idIdx]] = DogInfo{
			WeightKg:  weight,
			AgeMonths: age,
			Gender:    record[genderIdx],
		}
	}

	return &DogInfoStore{byID: byID}, nil
}

// Lookup returns the metadata for a dog.
func (s *DogInfoStore) Lookup(id string) (DogInfo, error) {
	info, ok := s.byID[id]
	if !ok {
		return DogInfo{}, fmt.Errorf("%w: %q", ErrUnknownEntity, id)
	}
	return info, nil
}

// Channel names appended by EnrichSeries.
const (
	ChannelWeight    = "Weight"
	ChannelAgeMonths = "Age_months"
)

// EnrichSeries appends each dog's weight and age as extra channels so they
// are carried through windowing. The whole enrichment fails on the first
// record whose dog has no metadata entry.
func (s *DogInfoStore) EnrichSeries(series pipeline.Series) (pipeline.Series, error) {
	names := make([]string, 0, len(series.ChannelNames)+2)
	names = append(names, series.ChannelNames...)
	names = append(names, ChannelWeight, ChannelAgeMonths)

	out := pipeline.Series{
		ChannelNames: names,
		Records:      make([]pipeline.Record, len(series.Records)),
	}
	for i, r := range series.Records {
		info, err := s.Lookup(r.DogID)
		if err != nil {
			return pipeline.Series{}, err
		}
		channels := make([]float64, 0, len(r.Channels)+2)
		channels = append(channels, r.Channels...)
		channels = append(channels, info.WeightKg, info.AgeMonths)
		out.Records[i] = pipeline.Record{
			DogID:    r.DogID,
			TSec:     r.TSec,
			Channels: channels,
			Behavior: r.Behavior,
		}
	}
	return out, nil
}
