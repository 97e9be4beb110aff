package clima

import (
	"math"

	"github.com/metobs-qc/marineqc/units"
)

// MDSField is the legacy "MDS-style" climatology lookup: nearest-neighbour
// on a 1x1 degree grid, indexed by pentad (0..72). It wraps an in-memory
// plane; no on-disk format is implied or required — a driver constructs
// the plane however it loads its climatology source.
type MDSField struct {
	// Grid is indexed [lonBin 0..359][latBin 0..179][pentad 0..72].
	// A NaN entry means "no data at this cell".
	Grid [][][]float32
}

// NewMDSField allocates an MDSField with every cell set missing.
func NewMDSField() *MDSField {
	grid := make([][][]float32, 360)
	for i := range grid {
		grid[i] = make([][]float32, 180)
		for j := range grid[i] {
			grid[i][j] = make([]float32, 73)
			for k := range grid[i][j] {
				grid[i][j][k] = float32(math.NaN())
			}
		}
	}
	return &MDSField{Grid: grid}
}

// Set stores a climatology value at the cell nearest (lat, lon) for the
// given pentad (1..73).
func (f *MDSField) Set(lat, lon float64, pentad int, value float32) {
	lonBin, latBin, ok := cellIndex(lat, lon)
	if !ok || pentad < 1 || pentad > 73 {
		return
	}
	f.Grid[lonBin][latBin][pentad-1] = value
}

// cellIndex maps (lat, lon) onto the grid's (lonBin, latBin), following the
// same binning the super-observation grid uses: lonBin = floor(lon + 180),
// latBin = floor(89.5 - lat + 0.5).
func cellIndex(lat, lon float64) (lonBin, latBin int, ok bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lonFold := lon
	for lonFold > 180 {
		lonFold -= 360
	}
	for lonFold <= -180 {
		lonFold += 360
	}
	lonBin = int(math.Floor(lonFold + 180))
	latBin = int(math.Floor(89.5 - lat + 0.5))
	if lonBin < 0 {
		lonBin = 0
	}
	if lonBin > 359 {
		lonBin = 359
	}
	if latBin < 0 {
		latBin = 0
	}
	if latBin > 179 {
		latBin = 179
	}
	return lonBin, latBin, true
}

// Value implements Field.
func (f *MDSField) Value(lat, lon float64, month, day int) Optional {
	lonBin, latBin, ok := cellIndex(lat, lon)
	if !ok {
		return None
	}
	pentad := units.Pentad(2001, month, day) // year is irrelevant to pentad indexing
	v := f.Grid[lonBin][latBin][pentad-1]
	if math.IsNaN(float64(v)) {
		return None
	}
	return Some(float64(v))
}

// Stdev implements Field for a field holding standard deviations; the MDS
// lookup logic is identical regardless of what the plane stores.
func (f *MDSField) Stdev(lat, lon float64, month, day int) Optional {
	return f.Value(lat, lon, month, day)
}
