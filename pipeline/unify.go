package pipeline

// Label Unification
//
// The raw dataset carries three behavior columns produced by independent
// annotation passes. A record is considered labelled by the first pass that
// produced a definite value; the passes are consulted in fixed priority
// order 1 > 2 > 3. When all three passes left the record undefined the
// sentinel value falls through unchanged, so unification is total and
// idempotent.

// UndefinedBehavior is the sentinel marking an unannotated behavior cell.
const UndefinedBehavior = "<undefined>"

// UnifyBehaviors collapses the three candidate behavior columns of a raw
// record into one authoritative label.
func UnifyBehaviors(raw RawRecord) string {
	if raw.Behavior1 != UndefinedBehavior {
		return raw.Behavior1
	}
	if raw.Behavior2 != UndefinedBehavior {
		return raw.Behavior2
	}
	return raw.Behavior3
}

// Unify applies label unification to a whole raw table and drops the
// bookkeeping columns (TestNum, Task, PointEvent and the three per-pass
// behavior columns), producing a clean series.
func Unify(raw RawTable) Series {
	records := make([]Record, len(raw.Records))
	for i, r := range raw.Records {
		channels := make([]float64, len(r.Channels))
		copy(channels, r.Channels)
		records[i] = Record{
			DogID:    r.DogID,
			TSec:     r.TSec,
			Channels: channels,
			Behavior: UnifyBehaviors(r),
		}
	}

	names := make([]string, len(raw.ChannelNames))
	copy(names, raw.ChannelNames)

	return Series{ChannelNames: names, Records: records}
}
