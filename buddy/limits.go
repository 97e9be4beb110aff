package buddy

import (
	"math"

	"github.com/metobs-qc/marineqc/clima"
	"github.com/metobs-qc/marineqc/units"
)

// SearchBox is a three-element (lon degrees, lat degrees, pentads) search
// radius used by NeighbourAnomalies, following Np_Super_Ob.get_neighbour_anomalies.
type SearchBox struct {
	LonDeg  int
	LatDeg  int
	Pentads int
}

// thresholdMultiplier finds the highest index i such that totalNobs exceeds
// nobLimits[i] and returns multipliers[i]. nobLimits must be ascending with
// nobLimits[0] == 0.
func thresholdMultiplier(totalNobs int, nobLimits []int, multipliers []float64) float64 {
	result := multipliers[0]
	for i := 1; i < len(nobLimits); i++ {
		if totalNobs > nobLimits[i] {
			result = multipliers[i]
		}
	}
	return result
}

// NeighbourAnomalies gathers the averaged anomalies (and their observation
// counts) of every non-empty cell within box of (lonBin, latBin, pentad),
// excluding the centre cell itself, wrapping longitude and pentad modulo
// their grid extents and clamping latitude. The longitude span is widened by
// 1/cos(latitude) the way the original super-observation grid does, so
// the physical search radius stays roughly constant near the poles.
func (g *Grid) NeighbourAnomalies(box SearchBox, lonBin, latBin, pentad int) (anoms []float64, nobs []int) {
	pindex := pentad - 1
	latApprox := 89.5 - float64(latBin)
	radcon := math.Pi / 180.0
	fullXSpan := int(float64(box.LonDeg) / math.Cos(latApprox*radcon))

	for xpt := -fullXSpan; xpt <= fullXSpan; xpt++ {
		for ypt := -box.LatDeg; ypt <= box.LatDeg; ypt++ {
			for ppt := -box.Pentads; ppt <= box.Pentads; ppt++ {
				if xpt == 0 && ypt == 0 && ppt == 0 {
					continue
				}
				xx := mod(lonBin+xpt, nLon)
				yy := clamp(latBin+ypt, 0, nLat-1)
				pp := mod(pindex+ppt, nPentad)
				if g.count[xx][yy][pp] != 0 {
					anoms = append(anoms, g.Mean[xx][yy][pp])
					nobs = append(nobs, g.count[xx][yy][pp])
				}
			}
		}
	}
	return anoms, nobs
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// clamp restricts the latitude bin to [lo, hi] rather than wrapping it:
// spec.md requires longitude and pentad to wrap but latitude to clamp, so
// a search near a pole narrows to the polar row instead of crossing into
// the opposite hemisphere.
func clamp(a, lo, hi int) int {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// ComputeMDSLimits fills BuddyMean/BuddyStdev using the graduated MDS
// search (step progressively wider until a non-empty neighbourhood is
// found), following Np_Super_Ob.get_buddy_limits. boxes, obsThresholds and
// multipliers must have matching lengths; nonmiss cells that exhaust every
// box fall back to mean 0, stdev 500 (effectively always passing).
func (g *Grid) ComputeMDSLimits(pentadStdev clima.Field, boxes []SearchBox, obsThresholds [][]int, multipliers [][]float64) {
	for i := 0; i < nLon; i++ {
		for j := 0; j < nLat; j++ {
			for p := 0; p < nPentad; p++ {
				if g.count[i][j][p] == 0 {
					continue
				}
				month, day := units.PentadToMonthDay(p + 1)
				stdev := pentadStdev.Stdev(89.5-float64(j), -179.5+float64(i), month, day)
				if !stdev.Valid || stdev.Value < 0.0 {
					stdev.Value = 1.0
				}

				matched := false
				for k, box := range boxes {
					anoms, nobs := g.NeighbourAnomalies(box, i, j, p+1)
					if len(anoms) == 0 {
						continue
					}
					g.BuddyMean[i][j][p] = mean(anoms)
					total := sumInts(nobs)
					g.BuddyStdev[i][j][p] = thresholdMultiplier(total, obsThresholds[k], multipliers[k]) * stdev.Value
					matched = true
					break
				}
				if !matched {
					g.BuddyMean[i][j][p] = 0.0
					g.BuddyStdev[i][j][p] = 500.0
				}
			}
		}
	}
}

// DefaultMDSBoxes is the legacy four-step MDS buddy search: 1x1 degree
// within 2 pentads, widening to 2x2 degrees within 2 pentads, 1x1 degrees
// within 4 pentads, and finally 2x2 degrees within 4 pentads.
func DefaultMDSBoxes() ([]SearchBox, [][]int, [][]float64) {
	boxes := []SearchBox{
		{LonDeg: 1, LatDeg: 1, Pentads: 2},
		{LonDeg: 2, LatDeg: 2, Pentads: 2},
		{LonDeg: 1, LatDeg: 1, Pentads: 4},
		{LonDeg: 2, LatDeg: 2, Pentads: 4},
	}
	thresholds := [][]int{
		{0, 5, 15, 100},
		{0},
		{0, 5, 15, 100},
		{0},
	}
	multipliers := [][]float64{
		{4.0, 3.5, 3.0, 2.5},
		{4.0},
		{4.0, 3.5, 3.0, 2.5},
		{4.0},
	}
	return boxes, thresholds, multipliers
}

// ComputeBayesianLimits fills BuddyMean/BuddyStdev using the Bayesian
// neighbourhood-error model, following Np_Super_Ob.get_new_buddy_limits.
// stdev1 is the grid-to-neighbourhood stdev field, stdev2 the
// point-to-grid stdev field, stdev3 the neighbour-average uncertainty
// field. sigmaM is the measurement error and noiseScaling inflates stdev2
// to match observed variability.
func (g *Grid) ComputeBayesianLimits(stdev1, stdev2, stdev3 clima.Field, box SearchBox, sigmaM, noiseScaling float64) {
	for i := 0; i < nLon; i++ {
		for j := 0; j < nLat; j++ {
			for p := 0; p < nPentad; p++ {
				if g.count[i][j][p] == 0 {
					continue
				}
				month, day := units.PentadToMonthDay(p + 1)
				lat := 89.5 - float64(j)
				lon := -179.5 + float64(i)

				s1 := validOrOne(stdev1.Stdev(lat, lon, month, day))
				s2 := validOrOne(stdev2.Stdev(lat, lon, month, day))
				s3 := validOrOne(stdev3.Stdev(lat, lon, month, day))

				anoms, nobs := g.NeighbourAnomalies(box, i, j, p+1)
				if len(anoms) == 0 {
					g.BuddyMean[i][j][p] = 0.0
					g.BuddyStdev[i][j][p] = 500.0
					continue
				}
				g.BuddyMean[i][j][p] = mean(anoms)

				var tot, ntot float64
				for _, n := range nobs {
					tot += sigmaM * sigmaM / float64(n)
					tot += noiseScaling * (s2 * s2 / float64(n))
					ntot++
				}
				sigmaBuddy := tot/(ntot*ntot) + s3*s3/ntot

				g.BuddyStdev[i][j][p] = math.Sqrt(sigmaM*sigmaM + s1*s1 + noiseScaling*s2*s2 + sigmaBuddy)
			}
		}
	}
}

func validOrOne(o clima.Optional) float64 {
	if !o.Valid || o.Value < 0.0 {
		return 1.0
	}
	return o.Value
}

func mean(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

func sumInts(vals []int) int {
	var s int
	for _, v := range vals {
		s += v
	}
	return s
}

// BuddyMeanAt and BuddyStdevAt recover a cell's neighbourhood statistics
// for a given lat/lon/month/day, mirroring Np_Super_Ob.get_buddy_mean and
// get_buddy_stdev.
func (g *Grid) BuddyMeanAt(lat, lon float64, year, month, day int) (float64, bool) {
	lonBin, latBin, ok := CellIndex(lat, lon)
	if !ok {
		return 0, false
	}
	pentad := units.Pentad(year, month, day)
	return g.BuddyMean[lonBin][latBin][pentad-1], true
}

func (g *Grid) BuddyStdevAt(lat, lon float64, year, month, day int) (float64, bool) {
	lonBin, latBin, ok := CellIndex(lat, lon)
	if !ok {
		return 0, false
	}
	pentad := units.Pentad(year, month, day)
	return g.BuddyStdev[lonBin][latBin][pentad-1], true
}
