package pipeline

// RawRecord is one observation of the dog movement dataset exactly as it
// appears in the source CSV, before label unification. The three behavior
// columns come from independent annotation passes and may disagree; TestNum,
// Task and PointEvent are session bookkeeping that never reaches the
// classifier.
type RawRecord struct {
	DogID      string
	TSec       float64
	TestNum    string
	Task       string
	Behavior1  string
	Behavior2  string
	Behavior3  string
	PointEvent string
	Channels   []float64
}

// RawTable holds the raw records together with the sensor channel layout.
// Channels in every record are aligned with ChannelNames.
type RawTable struct {
	ChannelNames []string
	Records      []RawRecord
}

// Record is a cleaned observation carrying a single authoritative behavior
// label. DogID is a grouping key and TSec an ordering key; neither is a
// feature.
type Record struct {
	DogID    string
	TSec     float64
	Channels []float64
	Behavior string
}

// Series is an ordered run of records sharing one channel layout.
type Series struct {
	ChannelNames []string
	Records      []Record
}

// WindowRow is one aggregated feature row: the per-channel means over a
// window span plus the modal dog and behavior of that span.
type WindowRow struct {
	Channels []float64
	DogID    string
	Behavior string
}

// WindowTable is the windowed feature table handed to a downstream
// classifier. Rows are derived, never updated.
type WindowTable struct {
	ChannelNames []string
	Rows         []WindowRow
}
