// Package scoring computes AQI and the weighted composite risk score from
// merged, possibly-partial observations. This file holds the AQI
// breakpoints, the AQI and risk category bands, the weights and the neutral
// defaults. The sub-score band tables live in risk.go, and the checklist
// engine uses its own literal trigger values.
package scoring

import "github.com/99souls/ariadne/engine/models"

// breakpoint is one row of an EPA piecewise-linear concentration-to-AQI table.
type breakpoint struct {
	concLow, concHigh float64
	aqiLow, aqiHigh   float64
}

// pm25Breakpoints is the EPA 24-hour PM2.5 table (µg/m3), reused here as an
// instantaneous reading per spec.
var pm25Breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// no2Breakpoints is the EPA 1-hour NO2 table (ppb).
var no2Breakpoints = []breakpoint{
	{0, 53, 0, 50},
	{54, 100, 51, 100},
	{101, 360, 101, 150},
	{361, 649, 151, 200},
	{650, 1249, 201, 300},
	{1250, 1649, 301, 400},
	{1650, 2049, 401, 500},
}

// AQI category bands.
const (
	aqiGoodMax         = 50
	aqiModerateMax     = 100
	aqiUSGMax          = 150
	aqiUnhealthyMax    = 200
	aqiVeryUnhealthyMax = 300
)

// CategoryForAQI maps a final AQI to its EPA six-level category. A value
// exactly at a boundary maps to the lower (safer) category.
func CategoryForAQI(aqi int) models.AQICategory {
	switch {
	case aqi <= aqiGoodMax:
		return models.AQIGood
	case aqi <= aqiModerateMax:
		return models.AQIModerate
	case aqi <= aqiUSGMax:
		return models.AQIUnhealthyForSensitiveGroup
	case aqi <= aqiUnhealthyMax:
		return models.AQIUnhealthy
	case aqi <= aqiVeryUnhealthyMax:
		return models.AQIVeryUnhealthy
	default:
		return models.AQIHazardous
	}
}

// Risk sub-score weights (spec.md §3, §4.4).
const (
	WeightAir     = 0.50
	WeightWeather = 0.30
	WeightUV      = 0.12
	WeightTerrain = 0.08
)

// Overall-safety weights (spec.md §4.1 step 9).
const (
	WeightEnvironmental = 0.30
	WeightHealth        = 0.50
	WeightTerrainOA     = 0.20
)

// Risk category thresholds (spec.md §3).
const (
	RiskExcellentMin = 8.5
	RiskGoodMin      = 7.0
	RiskFairMin      = 5.5
	RiskCautionMin   = 4.0
)

// CategoryForRiskScore maps a weighted 0-10 score to its category.
func CategoryForRiskScore(score float64) models.RiskCategory {
	switch {
	case score >= RiskExcellentMin:
		return models.RiskExcellent
	case score >= RiskGoodMin:
		return models.RiskGood
	case score >= RiskFairMin:
		return models.RiskFair
	case score >= RiskCautionMin:
		return models.RiskCaution
	default:
		return models.RiskPoor
	}
}

// Conservative defaults substituted when an adapter result is absent
// (spec.md §4.1 step 5).
const (
	DefaultNO2PPB   = 20.0
	DefaultPM25UgM3 = 15.0
)

// Neutral sub-score defaults used when the underlying input is absent.
const (
	DefaultAirScore     = 7.0
	DefaultWeatherScore = 7.0
	DefaultUVScore      = 5.0
	DefaultTerrainScore = 8.0
	DefaultOverallNeutral = 8.0
)
