package music

import "slices"

// Merge replaces the events of the recorded channels in target with
// recorded. Events on any other channel are kept untouched. Omni in
// channels replaces everything. The input slices are not modified.
func Merge(target, recorded []Event, channels ChannelSet) []Event {
	out := make([]Event, 0, len(target)+len(recorded))
	if !channels[Omni] {
		for _, e := range target {
			if !channels[ChannelOf(e)] {
				out = append(out, e)
			}
		}
	}
	out = append(out, recorded...)
	SortEvents(out)
	return out
}

// MergeInto applies Merge to seq and refreshes its duration.
func MergeInto(seq *Sequence, recorded []Event, channels ChannelSet) {
	seq.Events = Merge(seq.Events, slices.Clone(recorded), channels)
	seq.Touch()
}
