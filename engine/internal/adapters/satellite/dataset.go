package satellite

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"
)

// Dataset is the narrow slice of NetCDF access the subsetter needs: grid
// coordinates and two scalar reads at a resolved (i, j) pixel. Keeping it
// this small means a granule is never fully loaded — only the named
// variables at the one pixel the caller asked for.
type Dataset interface {
	Dims() (lat, lon []float64, err error)
	ReadScalar(varName string, i, j int) (float64, error)
	ReadQualityFlag(i, j int) (int, error)
	Close()
}

// ncDataset wraps github.com/fhs/go-netcdf/netcdf for production use.
type ncDataset struct {
	ds netcdf.Dataset
}

// OpenFile opens path (a local path or a mounted/streamed remote granule)
// through the real NetCDF library.
func OpenFile(path string) (Dataset, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("satellite: open granule: %w", err)
	}
	return &ncDataset{ds: ds}, nil
}

func (n *ncDataset) Dims() (lat, lon []float64, err error) {
	lat, err = readVec(n.ds, "lat")
	if err != nil {
		return nil, nil, err
	}
	lon, err = readVec(n.ds, "lon")
	if err != nil {
		return nil, nil, err
	}
	return lat, lon, nil
}

func readVec(ds netcdf.Dataset, name string) ([]float64, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("satellite: var %s: %w", name, err)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("satellite: var %s: expected 1 dim, got %d", name, len(dims))
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	buf := make([]float64, n)
	if err := v.ReadFloat64s(buf); err != nil {
		return nil, fmt.Errorf("satellite: read %s: %w", name, err)
	}
	return buf, nil
}

func (n *ncDataset) ReadScalar(varName string, i, j int) (float64, error) {
	v, err := n.ds.Var(varName)
	if err != nil {
		return 0, fmt.Errorf("satellite: var %s: %w", varName, err)
	}
	buf := make([]float64, 1)
	if err := v.ReadFloat64sAt(buf, []uint64{uint64(i), uint64(j)}, []uint64{1, 1}); err != nil {
		return 0, fmt.Errorf("satellite: read %s[%d,%d]: %w", varName, i, j, err)
	}
	return buf[0], nil
}

func (n *ncDataset) ReadQualityFlag(i, j int) (int, error) {
	v, err := n.ds.Var("qc_flag")
	if err != nil {
		return 0, fmt.Errorf("satellite: var qc_flag: %w", err)
	}
	buf := make([]int32, 1)
	if err := v.ReadInt32sAt(buf, []uint64{uint64(i), uint64(j)}, []uint64{1, 1}); err != nil {
		return 0, fmt.Errorf("satellite: read qc_flag[%d,%d]: %w", i, j, err)
	}
	return int(buf[0]), nil
}

func (n *ncDataset) Close() { n.ds.Close() }

// FakeDataset is an in-memory Dataset for tests, never touching the netcdf
// C library.
type FakeDataset struct {
	Lat, Lon  []float64
	NO2Column [][]float64
	Quality   [][]int
}

func (f *FakeDataset) Dims() (lat, lon []float64, err error) { return f.Lat, f.Lon, nil }

func (f *FakeDataset) ReadScalar(varName string, i, j int) (float64, error) {
	if i < 0 || i >= len(f.NO2Column) || j < 0 || j >= len(f.NO2Column[i]) {
		return 0, fmt.Errorf("satellite: fake index out of range: %d,%d", i, j)
	}
	return f.NO2Column[i][j], nil
}

func (f *FakeDataset) ReadQualityFlag(i, j int) (int, error) {
	if i < 0 || i >= len(f.Quality) || j < 0 || j >= len(f.Quality[i]) {
		return 0, fmt.Errorf("satellite: fake index out of range: %d,%d", i, j)
	}
	return f.Quality[i][j], nil
}

func (f *FakeDataset) Close() {}

// NearestIndex returns the index of the grid value closest to target.
func NearestIndex(grid []float64, target float64) int {
	best, bestDist := 0, -1.0
	for i, v := range grid {
		d := v - target
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
