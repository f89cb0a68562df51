package calib

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
)

// ChannelHistos holds one distribution per physical channel, indexed by
// IChanAbs240.
type ChannelHistos struct {
	H          [NChannels]*hbook.H1D
	Observable Observable
	frozen     bool
}

func NewChannelHistos(nbins int, xmin, xmax float64, obs Observable) *ChannelHistos {
	hs := &ChannelHistos{Observable: obs}
	for i := range hs.H {
		h := hbook.NewH1D(nbins, xmin, xmax)
		h.Annotation()["name"] = fmt.Sprintf("histo_%d", i)
		hs.H[i] = h
	}
	return hs
}

// Fill adds both hits of the event to their channel histograms.
func (hs *ChannelHistos) Fill(evt EventRecord) {
	if hs.frozen {
		panic("calib: fill on frozen channel histograms")
	}
	for hit := 0; hit < 2; hit++ {
		hs.H[evt.Channel[hit]].Fill(evt.Value(hit, hs.Observable), 1)
	}
}

// Freeze marks the histograms read-only.
func (hs *ChannelHistos) Freeze() {
	hs.frozen = true
}

func (hs *ChannelHistos) Entries(channel int) int64 {
	return hs.H[channel].Entries()
}

// Counts returns the bin contents of a channel, without under/overflow.
func (hs *ChannelHistos) Counts(channel int) []float64 {
	bins := hs.H[channel].Binning.Bins
	counts := make([]float64, len(bins))
	for i, bin := range bins {
		counts[i] = bin.SumW()
	}
	return counts
}
