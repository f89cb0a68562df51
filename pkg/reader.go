package calib

import (
	"fmt"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// EventSource is a lazy sequence of events. Scan calls fn for every event
// in order and stops at the first error returned by fn, which is returned
// unchanged.
type EventSource interface {
	Scan(fn func(entry int64, evt EventRecord) error) error
}

// SliceSource serves events from memory.
type SliceSource []EventRecord

func (s SliceSource) Scan(fn func(entry int64, evt EventRecord) error) error {
	for i, evt := range s {
		if err := fn(int64(i), evt); err != nil {
			return err
		}
	}
	return nil
}

// RootChain reads a list of ROOT files as a single tree, like a TChain.
type RootChain struct {
	Files  []string
	tree   rtree.Tree
	closer func() error
	hasRun bool
	hasEvt bool
}

// OpenRootChain checks every file before reading any of them, so a missing
// file is reported before a single event is processed.
func OpenRootChain(treeName string, files []string) (*RootChain, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	for _, fname := range files {
		info, err := os.Stat(fname)
		if err != nil {
			return nil, &ErrOpenFile{Filename: fname, Err: err}
		}
		if info.IsDir() {
			return nil, &ErrOpenFile{Filename: fname, Err: fmt.Errorf("is a directory")}
		}
	}

	tree, closer, err := rtree.ChainOf(treeName, files...)
	if err != nil {
		return nil, &ErrOpenFile{Filename: files[0], Err: err}
	}
	chain := &RootChain{
		Files:  files,
		tree:   tree,
		closer: closer,
		hasRun: tree.Branch("Run") != nil,
		hasEvt: tree.Branch("Evt") != nil,
	}
	for _, name := range []string{"IChanAbs240", "Ampl", "Charge"} {
		if tree.Branch(name) == nil {
			chain.Close()
			return nil, fmt.Errorf("tree %q has no branch %q", treeName, name)
		}
	}
	return chain, nil
}

func (c *RootChain) Entries() int64 {
	return c.tree.Entries()
}

func (c *RootChain) Scan(fn func(entry int64, evt EventRecord) error) error {
	var evt EventRecord
	rvars := []rtree.ReadVar{
		{Name: "IChanAbs240", Value: &evt.Channel},
		{Name: "Ampl", Value: &evt.Ampl},
		{Name: "Charge", Value: &evt.Charge},
	}
	if c.hasRun {
		rvars = append(rvars, rtree.ReadVar{Name: "Run", Value: &evt.Run})
	}
	if c.hasEvt {
		rvars = append(rvars, rtree.ReadVar{Name: "Evt", Value: &evt.Evt})
	}

	r, err := rtree.NewReader(c.tree, rvars)
	if err != nil {
		return fmt.Errorf("could not create tree reader: %w", err)
	}
	defer r.Close()

	// The reader wraps callback errors; keep ours intact for errors.As.
	var fnErr error
	err = r.Read(func(ctx rtree.RCtx) error {
		if err := fn(ctx.Entry, evt); err != nil {
			fnErr = err
			return err
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("could not read tree: %w", err)
	}
	return nil
}

func (c *RootChain) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer()
	c.closer = nil
	return err
}

// WriteRootFile writes events with the layout produced by the DPGA
// multiplicity-2 reconstruction.
func WriteRootFile(fname string, treeName string, events []EventRecord) error {
	f, err := groot.Create(fname)
	if err != nil {
		return &ErrOpenFile{Filename: fname, Err: err}
	}

	var evt EventRecord
	wvars := []rtree.WriteVar{
		{Name: "Run", Value: &evt.Run},
		{Name: "Evt", Value: &evt.Evt},
		{Name: "IChanAbs240", Value: &evt.Channel},
		{Name: "Ampl", Value: &evt.Ampl},
		{Name: "Charge", Value: &evt.Charge},
	}
	w, err := rtree.NewWriter(f, treeName, wvars, rtree.WithTitle("DPGA coincidences"))
	if err != nil {
		f.Close()
		return &ErrCreateTable{TableName: treeName, Err: err}
	}
	for _, e := range events {
		evt = e
		if _, err := w.Write(); err != nil {
			w.Close()
			f.Close()
			return fmt.Errorf("could not write event %d: %w", e.Evt, err)
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("could not close tree writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close file %q: %w", fname, err)
	}
	return nil
}
