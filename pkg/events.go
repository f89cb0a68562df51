package calib

import "golang.org/x/exp/constraints"

const (
	NChannels              = 240
	NChannelsPerHemisphere = NChannels / 2
)

// EventRecord is one coincidence: the first hit belongs to the left
// hemisphere (IChanAbs240 < 120), the second to the right one.
type EventRecord struct {
	Run     uint32
	Evt     uint32
	Channel [2]uint16
	Ampl    [2]float64
	Charge  [2]float64
}

func inRange[T constraints.Integer](v, lo, hi T) bool {
	return v >= lo && v < hi
}

// Hemisphere returns 0 for the left hemisphere and 1 for the right one.
func Hemisphere(channel int) int {
	if channel < NChannelsPerHemisphere {
		return 0
	}
	return 1
}

// Validate checks the hemisphere assignment of both hits. entry is only
// used to build the error.
func (e EventRecord) Validate(entry int64) error {
	if !inRange(e.Channel[0], 0, NChannelsPerHemisphere) ||
		!inRange(e.Channel[1], NChannelsPerHemisphere, NChannels) {
		return &ErrHemisphere{Entry: entry, Event: e}
	}
	return nil
}

func (e EventRecord) Value(hit int, obs Observable) float64 {
	if obs == Charge {
		return e.Charge[hit]
	}
	return e.Ampl[hit]
}
