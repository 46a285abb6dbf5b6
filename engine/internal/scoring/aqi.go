package scoring

import "github.com/99souls/ariadne/engine/models"

// interpolate applies the EPA piecewise-linear breakpoint formula:
//
//	aqi = (aqiHigh-aqiLow)/(concHigh-concLow) * (conc-concLow) + aqiLow
func interpolate(conc float64, table []breakpoint) (aqi float64, ok bool) {
	if conc < 0 {
		conc = 0
	}
	for _, bp := range table {
		if conc <= bp.concHigh {
			// A value in the gap between two rows (e.g. 12.05 µg/m3) is
			// scored at the lower edge of the row above it.
			if conc < bp.concLow {
				conc = bp.concLow
			}
			frac := (bp.aqiHigh - bp.aqiLow) / (bp.concHigh - bp.concLow)
			return frac*(conc-bp.concLow) + bp.aqiLow, true
		}
	}
	// Above the table's top band: clamp to the AQI ceiling (Hazardous).
	last := table[len(table)-1]
	if conc > last.concHigh {
		return last.aqiHigh, true
	}
	return 0, false
}

// CalculateAQI maps merged pollutant concentrations to a final AQI and its
// dominant pollutant, per spec.md §4.3. If both inputs are absent, it
// returns the documented neutral fallback (50, pm25).
func CalculateAQI(pm25UgM3, no2PPB *float64) (aqi int, dominant models.DominantPollutant) {
	var pm25AQI, no2AQI float64
	var havePM25, haveNO2 bool

	if pm25UgM3 != nil {
		if v, ok := interpolate(*pm25UgM3, pm25Breakpoints); ok {
			pm25AQI, havePM25 = v, true
		}
	}
	if no2PPB != nil {
		if v, ok := interpolate(*no2PPB, no2Breakpoints); ok {
			no2AQI, haveNO2 = v, true
		}
	}

	switch {
	case !havePM25 && !haveNO2:
		return 50, models.DominantPM25
	case havePM25 && !haveNO2:
		return int(pm25AQI + 0.5), models.DominantPM25
	case !havePM25 && haveNO2:
		return int(no2AQI + 0.5), models.DominantNO2
	default:
		if pm25AQI >= no2AQI {
			return int(pm25AQI + 0.5), models.DominantPM25
		}
		return int(no2AQI + 0.5), models.DominantNO2
	}
}

// AirQualityFromMerged builds the full AirQuality record from merged inputs.
func AirQualityFromMerged(pm25UgM3, no2PPB *float64) models.AirQuality {
	aqi, dominant := CalculateAQI(pm25UgM3, no2PPB)
	pm25 := DefaultPM25UgM3
	if pm25UgM3 != nil {
		pm25 = *pm25UgM3
	}
	no2 := DefaultNO2PPB
	if no2PPB != nil {
		no2 = *no2PPB
	}
	return models.AirQuality{
		AQI:               aqi,
		Category:          CategoryForAQI(aqi),
		PM25:              pm25,
		NO2:               no2,
		DominantPollutant: dominant,
	}
}
