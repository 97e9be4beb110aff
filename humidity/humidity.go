// Package humidity derives the five humidity variables (vapour pressure,
// specific humidity, relative humidity, wet-bulb temperature, dew-point
// depression) from dew point, air temperature and sea-level pressure.
package humidity

import (
	"math"
)

// Set holds the five derived humidity variables. All five are produced
// atomically: if Valid is false none of the fields carry a meaningful
// value.
type Set struct {
	Vap   float64 // vapour pressure, hPa
	Shu   float64 // specific humidity, g/kg
	Crh   float64 // relative humidity, %
	Cwb   float64 // wet-bulb temperature, degC
	Dpd   float64 // dew-point depression, degC
	Valid bool
}

// vaporPressure computes saturation vapour pressure over water/ice using
// the Magnus-Tetens form with the Bögel enhancement factor for moist air,
// keyed on the sign of the dew point: water-phase coefficients for dpt
// >= 0, ice-phase coefficients otherwise.
func vaporPressure(dpt, airTemp, slp float64) float64 {
	var a, b, c float64
	if dpt >= 0 {
		a, b, c = 6.1121, 17.502, 240.97
	} else {
		a, b, c = 6.1115, 22.452, 272.55
	}
	es := a * math.Exp((b*dpt)/(c+dpt))

	// Bögel enhancement factor, referencing air temperature and pressure.
	f := 1.0016 + 3.15e-6*slp - 0.074/slp*airTemp
	e := es * f

	return math.Round(e*10) / 10
}

// Compute derives the full humidity Set from dew point (degC), air
// temperature (degC) and sea-level pressure (hPa). If slp is not a finite
// positive value the whole Set is reported invalid, matching the engine's
// rule that a missing climatological SLP blanks out every derived
// variable.
func Compute(dpt, airTemp, slp float64) Set {
	if !finite(dpt) || !finite(airTemp) || !finite(slp) || slp <= 0 {
		return Set{}
	}

	vap := vaporPressure(dpt, airTemp, slp)
	eAir := vaporPressure(airTemp, airTemp, slp)

	shu := 622.0 * vap / (slp - 0.378*vap)

	var crh float64
	if eAir != 0 {
		crh = 100.0 * vap / eAir
	}
	if crh < 0 || crh > 150 {
		return Set{}
	}

	cwb := wetBulb(airTemp, dpt, slp)
	dpd := airTemp - dpt

	return Set{Vap: vap, Shu: shu, Crh: crh, Cwb: cwb, Dpd: dpd, Valid: true}
}

// wetBulb solves the psychrometric balance
//
//	e(Tw) - e(Td) = gamma * P * (Ta - Tw)
//
// iteratively via bisection between dpt and airTemp, where gamma is the
// standard psychrometer constant (0.000662 / degC for an aspirated
// instrument).
func wetBulb(airTemp, dpt, slp float64) float64 {
	const gamma = 0.000662
	eDpt := vaporPressure(dpt, airTemp, slp)

	lo, hi := dpt, airTemp
	if lo > hi {
		lo, hi = hi, lo
	}

	f := func(tw float64) float64 {
		eTw := vaporPressure(tw, airTemp, slp)
		return (eTw - eDpt) - gamma*slp*(airTemp-tw)
	}

	flo, fhi := f(lo), f(hi)
	if flo*fhi > 0 {
		// psychrometric balance has no sign change in range; fall back
		// to the midpoint as the closest achievable estimate.
		return (lo + hi) / 2.0
	}

	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2.0
		fm := f(mid)
		if (fm > 0) == (flo > 0) {
			lo, flo = mid, fm
		} else {
			hi, fhi = mid, fm
		}
	}
	return (lo + hi) / 2.0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
