package calib

import (
	"errors"
	"fmt"

	"gonum.org/v1/hdf5"
)

type EnergyCalibHDF5 struct {
	channel  int32
	mean     float64
	mean_err float64
	sigma    float64
}

func createFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func datasetCreationProps(chunks []uint, compressionLevel int) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk(chunks); err != nil {
		plist.Close()
		return nil, err
	}
	if err := plist.SetDeflate(compressionLevel); err != nil {
		plist.Close()
		return nil, err
	}
	return plist, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, nrows int, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{uint(nrows)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	chunk := uint(nrows)
	if chunk == 0 {
		chunk = 1
	}
	plist, err := datasetCreationProps([]uint{chunk}, compressionLevel)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func create2dArray(group *hdf5.Group, name string, nrows int, ncols int, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{uint(nrows), uint(ncols)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := datasetCreationProps([]uint{1, uint(ncols)}, compressionLevel)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_DOUBLE, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

// WriteHDF5 stores the calibration table (Calibration/energy) and the
// channel spectra (Calibration/spectra, one row per channel).
func WriteHDF5(fname string, res *Result, cfg Configuration) (err error) {
	file, err := createFile(fname)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("error closing file: %w", cerr))
		}
	}()

	group, err := file.CreateGroup("Calibration")
	if err != nil {
		return fmt.Errorf("error creating group %q: %w", "Calibration", err)
	}
	defer group.Close()

	rows := make([]EnergyCalibHDF5, len(res.Records))
	for i, r := range res.Records {
		rows[i] = EnergyCalibHDF5{
			channel:  int32(r.Channel),
			mean:     r.Mean,
			mean_err: r.MeanErr,
			sigma:    r.Sigma,
		}
	}
	table, err := createTable(group, "energy", EnergyCalibHDF5{}, len(rows), cfg.CompressionLevel)
	if err != nil {
		return err
	}
	defer table.Close()
	if len(rows) > 0 {
		if err := table.Write(&rows); err != nil {
			return fmt.Errorf("error writing energy table: %w", err)
		}
	}

	nbins := res.Histos.H[0].Len()
	spectra, err := create2dArray(group, "spectra", NChannels, nbins, cfg.CompressionLevel)
	if err != nil {
		return err
	}
	defer spectra.Close()
	data := make([]float64, 0, NChannels*nbins)
	for ch := 0; ch < NChannels; ch++ {
		data = append(data, res.Histos.Counts(ch)...)
	}
	if err := spectra.Write(&data); err != nil {
		return fmt.Errorf("error writing spectra: %w", err)
	}
	return nil
}
