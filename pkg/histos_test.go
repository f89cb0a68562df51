package calib

import "testing"

func TestSingleEventFillsTwoHistograms(t *testing.T) {
	hs := NewChannelHistos(200, 0, 4095, Amplitude)
	src := SliceSource{{Channel: [2]uint16{0, 120}, Ampl: [2]float64{1000, 2000}}}

	n, err := Ingest(src, hs, 0)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
	for ch := 0; ch < NChannels; ch++ {
		want := int64(0)
		if ch == 0 || ch == 120 {
			want = 1
		}
		if got := hs.Entries(ch); got != want {
			t.Fatalf("channel %d: expected %d entries, got %d", ch, want, got)
		}
	}
}

func TestFillUsesObservable(t *testing.T) {
	hs := NewChannelHistos(10, 0, 100, Charge)
	hs.Fill(EventRecord{Channel: [2]uint16{1, 121}, Ampl: [2]float64{5, 5}, Charge: [2]float64{55, 95}})

	counts := hs.Counts(1)
	if counts[5] != 1 {
		t.Fatalf("charge 55 should be in bin 5, got %v", counts)
	}
	if counts := hs.Counts(121); counts[9] != 1 {
		t.Fatalf("charge 95 should be in bin 9, got %v", counts)
	}
}

func TestFillAfterFreezePanics(t *testing.T) {
	hs := NewChannelHistos(10, 0, 100, Amplitude)
	hs.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	hs.Fill(EventRecord{Channel: [2]uint16{1, 121}})
}

func TestHistogramNames(t *testing.T) {
	hs := NewChannelHistos(10, 0, 100, Amplitude)
	if name := hs.H[42].Name(); name != "histo_42" {
		t.Fatalf("unexpected name %q", name)
	}
}
