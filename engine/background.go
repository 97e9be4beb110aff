package engine

import "github.com/metobs-qc/marineqc/report"

// BackgroundField is the drifter-QC background interface of spec.md §6:
// a read-only, total lookup of background SST, its error variance, and
// sea-ice fraction at a given place and date. Implementations report
// missing coverage as a missing report.Optional rather than an error.
type BackgroundField interface {
	BackgroundSST(lat, lon float64, year, month, day int) report.Optional
	BackgroundErrorVar(lat, lon float64, year, month, day int) report.Optional
	IceFraction(lat, lon float64, year, month, day int) report.Optional
}

// bindBackground copies a report's background SST, background error
// variance, and ice fraction from bg into the report's value table, so
// the drifter package's checks (which read report.Background/BgVar/
// IceFrac directly) see them without depending on BackgroundField
// themselves.
func bindBackground(r *report.Report, bg BackgroundField) {
	if bg == nil {
		return
	}
	r.Set(report.Background, bg.BackgroundSST(r.Lat, r.Lon, r.Year, r.Month, r.Day))
	r.Set(report.BgVar, bg.BackgroundErrorVar(r.Lat, r.Lon, r.Year, r.Month, r.Day))
	r.Set(report.IceFrac, bg.IceFraction(r.Lat, r.Lon, r.Year, r.Month, r.Day))
}
