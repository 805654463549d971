package pipeline

import (
	"errors"
	"math"
)

// Channel Scaling
//
// Sensor channels sit on very different scales (accelerometer axes in g,
// gyroscope axes in deg/s). Distance-based classifiers are dominated by the
// largest-magnitude channel unless the windowed columns are brought onto a
// comparable scale first, so the pipeline can optionally standardize the
// windowed table before it is written out.

// ChannelScaler standardizes windowed channels using z-score normalization:
// each channel column is transformed to mean=0, std=1.
type ChannelScaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// NewChannelScalerFromWindows computes scaling parameters from a windowed
// table.
func NewChannelScalerFromWindows(t WindowTable) (*ChannelScaler, error) {
	if len(t.Rows) == 0 {
		return nil, errors.New("no rows provided")
	}
	channelCount := len(t.ChannelNames)
	if channelCount == 0 {
		return nil, errors.New("table has no channels")
	}

	mean := make([]float64, channelCount)
	for _, row := range t.Rows {
		if len(row.Channels) != channelCount {
			return nil, errors.New("inconsistent channel dimensions")
		}
		for i, v := range row.Channels {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(t.Rows))
	}

	stddev := make([]float64, channelCount)
	for _, row := range t.Rows {
		for i, v := range row.Channels {
			diff := v - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(t.Rows)))
		// Prevent division by zero for constant channels
		if stddev[i] < 1e-10 {
			stddev[i] = 1.0
		}
	}

	return &ChannelScaler{Mean: mean, Stddev: stddev}, nil
}

// Transform returns a copy of the table with every channel column
// standardized. Labels and dog IDs pass through untouched.
func (cs *ChannelScaler) Transform(t WindowTable) WindowTable {
	out := WindowTable{
		ChannelNames: t.ChannelNames,
		Rows:         make([]WindowRow, len(t.Rows)),
	}
	for r, row := range t.Rows {
		scaled := make([]float64, len(row.Channels))
		for i, v := range row.Channels {
			if i < len(cs.Mean) {
				scaled[i] = (v - cs.Mean[i]) / cs.Stddev[i]
			} else {
				scaled[i] = v
			}
		}
		out.Rows[r] = WindowRow{Channels: scaled, DogID: row.DogID, Behavior: row.Behavior}
	}
	return out
}

// MinMaxChannelScaler scales windowed channels to the [0, 1] range.
type MinMaxChannelScaler struct {
	Min   []float64 `json:"min"`
	Range []float64 `json:"range"` // max - min
}

// NewMinMaxChannelScalerFromWindows computes min-max scaling parameters.
func NewMinMaxChannelScalerFromWindows(t WindowTable) (*MinMaxChannelScaler, error) {
	if len(t.Rows) == 0 {
		return nil, errors.New("no rows provided")
	}
	channelCount := len(t.ChannelNames)
	if channelCount == 0 {
		return nil, errors.New("table has no channels")
	}

	min := make([]float64, channelCount)
	max := make([]float64, channelCount)
	copy(min, t.Rows[0].Channels)
	copy(max, t.Rows[0].Channels)

	for _, row := range t.Rows[1:] {
		if len(row.Channels) != channelCount {
			return nil, errors.New("inconsistent channel dimensions")
		}
		for i, v := range row.Channels {
			if v < min[i] {
				min[i] = v
			}
			if v > max[i] {
				max[i] = v
			}
		}
	}

	channelRange := make([]float64, channelCount)
	for i := range channelRange {
		channelRange[i] = max[i] - min[i]
		if channelRange[i] < 1e-10 {
			channelRange[i] = 1.0
		}
	}

	return &MinMaxChannelScaler{Min: min, Range: channelRange}, nil
}

// Transform returns a copy of the table with every channel scaled to [0, 1].
func (mms *MinMaxChannelScaler) Transform(t WindowTable) WindowTable {
	out := WindowTable{
		ChannelNames: t.ChannelNames,
		Rows:         make([]WindowRow, len(t.Rows)),
	}
	for r, row := range t.Rows {
		scaled := make([]float64, len(row.Channels))
		for i, v := range row.Channels {
			if i >= len(mms.Min) {
				scaled[i] = v
				continue
			}
			s := (v - mms.Min[i]) / mms.Range[i]
			if s < 0 {
				s = 0
			}
			if s > 1 {
				s = 1
			}
			scaled[i] = s
		}
		out.Rows[r] = WindowRow{Channels: scaled, DogID: row.DogID, Behavior: row.Behavior}
	}
	return out
}
