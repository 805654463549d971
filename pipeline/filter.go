package pipeline

import (
	"strconv"
	"strings"
)

// Noise and Duplicate Filtering
//
// Two cleaning passes run between label unification and windowing:
//
// 1. Noise filter: records labelled with the undefined sentinel, with one of
//    the synchronization marker classes, or with the "Bowing" class are
//    removed. These classes exist only as recording artifacts and would
//    pollute the class balance of the windowed output.
// 2. Duplicate filter: exact row-level duplicates (every field identical) are
//    collapsed to their first occurrence. Ordering of surviving records is
//    preserved.
//
// Both passes are pure and idempotent: re-running either on its own output
// is a no-op.

// noiseBehaviors is the fixed exclusion set of labels removed before
// windowing.
var noiseBehaviors = map[string]bool{
	UndefinedBehavior:       true,
	"Synchronization":       true,
	"Extra_Synchronization": true,
	"Bowing":                true,
}

// IsNoiseBehavior reports whether a unified label belongs to the fixed
// exclusion set.
func IsNoiseBehavior(behavior string) bool {
	return noiseBehaviors[behavior]
}

// FilterNoise drops every record whose behavior is in the exclusion set.
func FilterNoise(s Series) Series {
	kept := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if IsNoiseBehavior(r.Behavior) {
			continue
		}
		kept = append(kept, r)
	}
	return Series{ChannelNames: s.ChannelNames, Records: kept}
}

// DropDuplicates removes exact duplicate records, keeping the first
// occurrence of each duplicate group.
func DropDuplicates(s Series) Series {
	seen := make(map[string]bool, len(s.Records))
	kept := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		key := recordKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	return Series{ChannelNames: s.ChannelNames, Records: kept}
}

// Clean runs the noise filter followed by duplicate removal.
func Clean(s Series) Series {
	return DropDuplicates(FilterNoise(s))
}

// recordKey builds an exact identity key over every field of a record.
func recordKey(r Record) string {
	var b strings.Builder
	b.WriteString(r.DogID)
	b.WriteByte('\x1f')
	b.WriteString(strconv.FormatFloat(r.TSec, 'g', -1, 64))
	b.WriteByte('\x1f')
	b.WriteString(r.Behavior)
	for _, v := range r.Channels {
		b.WriteByte('\x1f')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
