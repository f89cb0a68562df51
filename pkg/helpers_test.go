package calib

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
)

// synthEvents returns n coincidences between channel 5, amplitude
// N(2000, 50), and channel 125, amplitude N(1800, 40).
func synthEvents(n int, seed int64) []EventRecord {
	rnd := rand.New(rand.NewSource(seed))
	events := make([]EventRecord, n)
	for i := range events {
		a0 := 2000 + 50*rnd.NormFloat64()
		a1 := 1800 + 40*rnd.NormFloat64()
		events[i] = EventRecord{
			Run:     1,
			Evt:     uint32(i),
			Channel: [2]uint16{5, 125},
			Ampl:    [2]float64{a0, a1},
			Charge:  [2]float64{10 * a0, 10 * a1},
		}
	}
	return events
}

func writeRoot(t *testing.T, dir, name string, events []EventRecord) string {
	t.Helper()
	fname := filepath.Join(dir, name)
	if err := WriteRootFile(fname, "tree", events); err != nil {
		t.Fatalf("WriteRootFile: %v", err)
	}
	return fname
}

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
	errs  []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf("[%s] %s", module, message))
}

func (l *recordingLogger) Warn(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf("[%s] %s", module, message))
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, message)
}

func useLogger(t *testing.T) *recordingLogger {
	t.Helper()
	l := &recordingLogger{}
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
	return l
}
