package scoring

import (
	"math"
	"strings"

	"github.com/99souls/ariadne/engine/models"
)

// band is one linear segment of a sub-score table: for x in (lo, hi], the
// score moves linearly from scoreAtLo to scoreAtHi.
type band struct {
	lo, hi           float64
	scoreAtLo, scoreAtHi float64
}

func scoreFromBands(x float64, bands []band, belowFirst, aboveLast float64) float64 {
	if len(bands) == 0 {
		return belowFirst
	}
	if x < bands[0].lo {
		return belowFirst
	}
	if x == bands[0].lo {
		// The first band owns its own lower edge: the higher band wins at
		// the boundary, not the caller's "below" fallback.
		return bands[0].scoreAtLo
	}
	for _, b := range bands {
		if x > b.lo && x <= b.hi {
			frac := (x - b.lo) / (b.hi - b.lo)
			return b.scoreAtLo + frac*(b.scoreAtHi-b.scoreAtLo)
		}
	}
	return aboveLast
}

var airAQIBands = []band{
	{0, 50, 10.0, 9.5},
	{50, 100, 8.0, 6.8},
	{100, 150, 5.5, 4.0},
	{150, 200, 3.5, 2.0},
	{200, 300, 1.5, 0.5},
	{300, 500, 0.5, 0.0},
}

var airPM25Bands = []band{
	{0, 12, 10.0, 9.5},
	{12, 35.4, 8.0, 6.8},
	{35.4, 55.4, 5.5, 4.0},
	{55.4, 150.4, 3.5, 2.0},
	{150.4, 250.4, 1.5, 0.5},
	{250.4, 500.4, 0.5, 0.0},
}

// AirScore implements spec.md §4.4's air sub-score: piecewise on AQI when
// available, else on PM2.5 directly, else the neutral default.
func AirScore(aqi *int, pm25UgM3 *float64) float64 {
	if aqi != nil {
		return scoreFromBands(float64(*aqi), airAQIBands, 10.0, 0.0)
	}
	if pm25UgM3 != nil {
		return scoreFromBands(*pm25UgM3, airPM25Bands, 10.0, 0.0)
	}
	return DefaultAirScore
}

var uvBands = []band{
	{2, 5, 9.5, 8.5},
	{5, 7, 8.0, 6.5},
	{7, 10, 6.0, 4.0},
	{10, 20, 3.5, 0.0},
}

// UVScore implements spec.md §4.4's UV sub-score.
func UVScore(uvIndex *float64) float64 {
	if uvIndex == nil {
		return DefaultUVScore
	}
	if *uvIndex <= 2 {
		return 10.0
	}
	return scoreFromBands(*uvIndex, uvBands, 10.0, 0.0)
}

// terrainBands[0]'s lower edge (1500 m) is the documented boundary: the
// higher band wins there, yielding 9.0, not the 10.0 flat-lowland score.
var terrainBands = []band{
	{1500, 2500, 9.0, 9.5},
	{2500, 3500, 8.5, 7.0},
	{3500, 5000, 6.5, 4.0},
	{5000, 9000, 3.5, 0.0},
}

// TerrainScore implements spec.md §4.4's terrain sub-score plus the
// activity-specific adjustment.
func TerrainScore(elevationM *int, activity string) float64 {
	if elevationM == nil {
		return DefaultTerrainScore
	}
	elev := float64(*elevationM)
	score := scoreFromBands(elev, terrainBands, 10.0, 0.0)

	switch normalizeActivity(activity) {
	case "running", "cycling":
		if elev > 2000 {
			score -= 1.0
		}
	case "mountaineering":
		if elev >= 1500 && elev <= 3500 {
			score += 0.5
		}
		if elev > 5000 {
			score -= 0.5
		}
	}
	return clamp(score, 0, 10)
}

func normalizeActivity(activity string) string {
	return strings.ToLower(strings.TrimSpace(activity))
}

// ApparentTemperature applies the NOAA Rothfusz heat-index formula above
// 26C/40% humidity, the NWS wind-chill formula below 10C/5km/h wind, and
// the raw temperature otherwise.
func ApparentTemperature(tempC, humidityPct, windKmh float64) float64 {
	switch {
	case tempC > 26 && humidityPct > 40:
		return heatIndexC(tempC, humidityPct)
	case tempC < 10 && windKmh > 5:
		return windChillC(tempC, windKmh)
	default:
		return tempC
	}
}

// heatIndexC applies the Rothfusz regression in Fahrenheit, converting back
// to Celsius.
func heatIndexC(tempC, rh float64) float64 {
	t := tempC*9/5 + 32
	hi := -42.379 + 2.04901523*t + 10.14333127*rh -
		0.22475541*t*rh - 0.00683783*t*t - 0.05481717*rh*rh +
		0.00122874*t*t*rh + 0.00085282*t*rh*rh - 0.00000199*t*t*rh*rh
	return (hi - 32) * 5 / 9
}

// windChillC applies the NWS wind-chill formula (temp in C, wind in km/h).
func windChillC(tempC, windKmh float64) float64 {
	v := math.Pow(windKmh, 0.16)
	wc := 13.12 + 0.6215*tempC - 11.37*v + 0.3965*tempC*v
	return wc
}

var weatherBands = []band{
	{24, 27, 10.0, 9.0},
	{27, 32, 9.0, 7.0},
	{32, 38, 7.0, 4.0},
	{38, 43, 4.0, 2.0},
	{43, 100, 2.0, 1.0},
}

var weatherBandsLow = []band{
	{18, 15, 10.0, 9.0},
	{15, 10, 9.0, 7.0},
	{10, 5, 7.0, 4.0},
	{5, 0, 4.0, 2.0},
	{0, -50, 2.0, 1.0},
}

// WeatherScore implements spec.md §4.4's weather sub-score: a symmetric band
// around 18-24C applied to the apparent temperature, plus flat penalties.
func WeatherScore(h *models.WeatherHour) float64 {
	if h == nil {
		return DefaultWeatherScore
	}
	apparent := ApparentTemperature(h.TempC, h.HumidityPct, h.WindKmh)

	var score float64
	switch {
	case apparent >= 18 && apparent <= 24:
		score = 10.0
	case apparent > 24:
		score = scoreFromBands(apparent, weatherBands, 10.0, 1.0)
	default:
		score = scoreFromBandsDescending(apparent, weatherBandsLow, 10.0, 1.0)
	}

	if h.WindKmh >= 60 {
		score -= 3
	}
	if h.PrecipMM >= 50 {
		score -= 3
	}
	if h.HumidityPct < 20 || h.HumidityPct > 90 {
		score -= 1
	}
	return clamp(score, 0, 10)
}

// scoreFromBandsDescending mirrors scoreFromBands for bands whose lo > hi
// (used for the cold-side symmetric bands).
func scoreFromBandsDescending(x float64, bands []band, aboveFirst, belowLast float64) float64 {
	if len(bands) == 0 {
		return aboveFirst
	}
	if x >= bands[0].lo {
		return aboveFirst
	}
	for _, b := range bands {
		if x < b.lo && x >= b.hi {
			frac := (b.lo - x) / (b.lo - b.hi)
			return b.scoreAtLo + frac*(b.scoreAtHi-b.scoreAtLo)
		}
	}
	return belowLast
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Inputs bundles every optional measurement the risk scorer consumes, all
// pointer-typed so callers never need a sentinel value to mean "absent".
type Inputs struct {
	Activity    string
	AQI         *int
	PM25UgM3    *float64
	NO2PPB      *float64
	UVIndex     *float64
	ElevationM  *int
	WeatherHour *models.WeatherHour
}

// Score computes the full weighted RiskScore from Inputs, never panicking
// on any nil field.
func Score(in Inputs) models.RiskScore {
	air := AirScore(in.AQI, in.PM25UgM3)
	weather := WeatherScore(in.WeatherHour)
	uv := UVScore(in.UVIndex)
	terrain := TerrainScore(in.ElevationM, in.Activity)

	total := WeightAir*air + WeightWeather*weather + WeightUV*uv + WeightTerrain*terrain
	total = clamp(total, 0, 10)

	return models.RiskScore{
		Score:    math.Round(total*100) / 100,
		Category: CategoryForRiskScore(total),
		SubScores: models.SubScores{
			Air:     air,
			Weather: weather,
			UV:      uv,
			Terrain: terrain,
		},
		Warnings: Warnings(in),
	}
}

// Warnings builds the ordered, null-guarded warning list from spec.md
// §4.4's fixed predicate table. Each predicate only fires when its input is
// present.
func Warnings(in Inputs) []string {
	var out []string
	if in.AQI != nil {
		switch {
		case *in.AQI > 200:
			out = append(out, "Air quality is hazardous; consider postponing outdoor activity")
		case *in.AQI > 150:
			out = append(out, "Air quality is unhealthy; limit prolonged exertion outdoors")
		case *in.AQI > 100:
			out = append(out, "Air quality is unhealthy for sensitive groups")
		}
	}
	if in.PM25UgM3 != nil && *in.PM25UgM3 > 35 {
		out = append(out, "PM2.5 levels are elevated")
	}
	if in.UVIndex != nil {
		switch {
		case *in.UVIndex >= 11:
			out = append(out, "Extreme UV exposure risk")
		case *in.UVIndex >= 8:
			out = append(out, "Very high UV exposure risk")
		case *in.UVIndex >= 6:
			out = append(out, "High UV exposure risk")
		}
	}
	if in.WeatherHour != nil {
		switch {
		case in.WeatherHour.TempC > 38:
			out = append(out, "Extreme heat expected")
		case in.WeatherHour.TempC < -15:
			out = append(out, "Extreme cold expected")
		}
		if in.WeatherHour.WindKmh > 60 {
			out = append(out, "Dangerously high winds expected")
		}
		if in.WeatherHour.PrecipMM > 50 {
			out = append(out, "Heavy precipitation expected")
		}
	}
	if in.ElevationM != nil {
		switch {
		case *in.ElevationM > 4000:
			out = append(out, "Severe altitude; risk of altitude sickness")
		case *in.ElevationM > 3000:
			out = append(out, "High altitude; acclimatize before exertion")
		case *in.ElevationM > 2500:
			out = append(out, "Moderate altitude; watch for altitude symptoms")
		}
	}
	return out
}
