// Package models contains the public request/response and domain records
// exchanged between the orchestrator, its adapters, and callers. Entities are
// plain records: no entity here owns a database connection or a goroutine.
package models

import (
	"errors"
	"time"
)

// AnalyzeRequest is the public input to Engine.Analyze.
type AnalyzeRequest struct {
	Activity       string     `json:"activity"`
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	DurationHours  int        `json:"duration_hours,omitempty"`
}

// Domain-specific validation errors (kept identical in meaning across retries).
var (
	ErrInvalidLatitude  = errors.New("latitude must be finite and within [-90,90]")
	ErrInvalidLongitude = errors.New("longitude must be finite and within [-180,180]")
	ErrInvalidDuration  = errors.New("duration_hours must be within [1,72]")
	ErrMissingActivity  = errors.New("activity is required")
)

// PollutantSample is a ground-station measurement; either field may be absent.
type PollutantSample struct {
	PM25UgM3     *float64   `json:"pm25_ugm3,omitempty"`
	NO2PPB       *float64   `json:"no2_ppb,omitempty"`
	StationsUsed int        `json:"stations_used"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// Empty reports whether the sample carries no pollutant value at all.
func (p *PollutantSample) Empty() bool {
	return p == nil || (p.PM25UgM3 == nil && p.NO2PPB == nil)
}

// QualityFlag is the ordinal quality of a satellite pixel retrieval.
type QualityFlag int

const (
	QualityBad QualityFlag = iota
	QualityQuestionable
	QualityGood
)

func (q QualityFlag) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityQuestionable:
		return "questionable"
	default:
		return "bad"
	}
}

// SatNO2ScaleFactor converts a tropospheric NO2 column (molec/cm^2) to a
// surface ppb approximation, per the product's documented scaling.
const SatNO2ScaleFactor = 2.46e15

// SatellitePixel is the single pixel extracted from the geostationary product.
type SatellitePixel struct {
	NO2ColumnMolecCM2 float64     `json:"no2_column_molec_cm2"`
	NO2PPB            float64     `json:"no2_ppb"`
	QualityFlag       QualityFlag `json:"quality_flag"`
	GranuleID         string      `json:"granule_id"`
	ObservationTime   time.Time   `json:"observation_time"`
	PixelOffsetKM     float64     `json:"pixel_offset_km"`
}

// WeatherHour is one hourly forecast slice.
type WeatherHour struct {
	Timestamp     time.Time `json:"timestamp"`
	TempC         float64   `json:"temp_c"`
	HumidityPct   float64   `json:"humidity_pct"`
	WindKmh       float64   `json:"wind_kmh"`
	WindDirDeg    float64   `json:"wind_dir_deg"`
	UVIndex       float64   `json:"uv_index"`
	PrecipMM      float64   `json:"precip_mm"`
	CloudCoverPct float64   `json:"cloud_cover_pct"`
}

// TerrainType buckets elevation into a coarse category.
type TerrainType string

const (
	TerrainLowland      TerrainType = "lowland"
	TerrainHills        TerrainType = "hills"
	TerrainMountains    TerrainType = "mountains"
	TerrainHighMountain TerrainType = "high_mountains"
)

// ClassifyTerrain buckets an elevation in meters strictly by the bands in
// spec.md §3: <300 lowland, <1000 hills, <2500 mountains, else high_mountains.
func ClassifyTerrain(elevationM int) TerrainType {
	switch {
	case elevationM < 300:
		return TerrainLowland
	case elevationM < 1000:
		return TerrainHills
	case elevationM < 2500:
		return TerrainMountains
	default:
		return TerrainHighMountain
	}
}

// Terrain is the resolved elevation/terrain view for the query point.
type Terrain struct {
	ElevationM  int         `json:"elevation_m"`
	TerrainType TerrainType `json:"terrain_type"`
}

// DominantPollutant names which pollutant drove the final AQI.
type DominantPollutant string

const (
	DominantPM25 DominantPollutant = "pm25"
	DominantNO2  DominantPollutant = "no2"
)

// AQICategory is the EPA six-level classification.
type AQICategory string

const (
	AQIGood                       AQICategory = "Good"
	AQIModerate                   AQICategory = "Moderate"
	AQIUnhealthyForSensitiveGroup AQICategory = "Unhealthy for Sensitive Groups"
	AQIUnhealthy                  AQICategory = "Unhealthy"
	AQIVeryUnhealthy              AQICategory = "Very Unhealthy"
	AQIHazardous                  AQICategory = "Hazardous"
)

// AirQuality is the merged, scored air-quality view.
type AirQuality struct {
	AQI               int               `json:"aqi"`
	Category          AQICategory       `json:"category"`
	PM25              float64           `json:"pm25"`
	NO2               float64           `json:"no2"`
	DominantPollutant DominantPollutant `json:"dominant_pollutant"`
}

// RiskCategory is the overall safety bucket derived from the weighted score.
type RiskCategory string

const (
	RiskExcellent RiskCategory = "Excellent"
	RiskGood      RiskCategory = "Good"
	RiskFair      RiskCategory = "Fair"
	RiskCaution   RiskCategory = "Caution"
	RiskPoor      RiskCategory = "Poor"
)

// SubScores holds the four weighted components of RiskScore.
type SubScores struct {
	Air     float64 `json:"air"`
	Weather float64 `json:"weather"`
	UV      float64 `json:"uv"`
	Terrain float64 `json:"terrain"`
}

// RiskScore is the composite 0-10 safety score plus its rationale.
type RiskScore struct {
	Score     float64      `json:"score"`
	Category  RiskCategory `json:"category"`
	SubScores SubScores    `json:"sub_scores"`
	Warnings  []string     `json:"warnings"`
}

// ChecklistCategory enumerates the gear categories the checklist engine emits.
type ChecklistCategory string

const (
	CategoryClothing    ChecklistCategory = "clothing"
	CategoryHydration   ChecklistCategory = "hydration"
	CategorySafety      ChecklistCategory = "safety"
	CategoryNavigation  ChecklistCategory = "navigation"
	CategoryRespiratory ChecklistCategory = "respiratory"
	CategorySunProt     ChecklistCategory = "sun_protection"
	CategoryAltitude    ChecklistCategory = "altitude"
	CategoryShelter     ChecklistCategory = "shelter"
	CategoryAdvisory    ChecklistCategory = "advisory"
	CategoryGeneral     ChecklistCategory = "general"
)

// ChecklistItem is one recommended or required piece of gear/advice.
type ChecklistItem struct {
	Item     string            `json:"item"`
	Required bool              `json:"required"`
	Reason   string            `json:"reason"`
	Category ChecklistCategory `json:"category"`
}

// OverallSafety is the three-way breakdown backing the top-level risk_score.
type OverallSafety struct {
	Environmental float64 `json:"environmental"`
	Health        float64 `json:"health"`
	Terrain       float64 `json:"terrain"`
	Overall       float64 `json:"overall"`
}

// RiskFactor is one labeled contributor to the overall score, surfaced for
// client display.
type RiskFactor struct {
	Factor string  `json:"factor"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// AnalyzeResponse is the full public response contract, per spec.md §6.
type AnalyzeResponse struct {
	RequestID        string            `json:"request_id"`
	RiskScore        float64           `json:"risk_score"`
	Category         RiskCategory      `json:"category"`
	OverallSafety    OverallSafety     `json:"overallSafety"`
	AirQuality       AirQuality        `json:"air_quality"`
	WeatherForecast  []WeatherHourView `json:"weather_forecast"`
	Elevation        ElevationView     `json:"elevation"`
	Checklist        []ChecklistItem   `json:"checklist"`
	Warnings         []string          `json:"warnings"`
	AISummary        string            `json:"ai_summary"`
	RiskFactors      []RiskFactor      `json:"risk_factors"`
	DataSources      []string          `json:"data_sources"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// WeatherHourView is the wire shape for one hourly forecast entry (field
// names differ from the internal WeatherHour per the public contract).
type WeatherHourView struct {
	Timestamp      time.Time `json:"timestamp"`
	TempC          float64   `json:"temp_c"`
	Humidity       float64   `json:"humidity"`
	WindSpeedKmh   float64   `json:"wind_speed_kmh"`
	WindDirection  float64   `json:"wind_direction"`
	UVIndex        float64   `json:"uv_index"`
	PrecipitationMM float64  `json:"precipitation_mm"`
	CloudCover     float64   `json:"cloud_cover"`
}

// ElevationView is the wire shape for the elevation block. SlopeDegrees is
// always nil: slope derivation is out of scope for this implementation and
// the field exists only to satisfy the public contract.
type ElevationView struct {
	ElevationM   float64  `json:"elevation_m"`
	TerrainType  string   `json:"terrain_type"`
	SlopeDegrees *float64 `json:"slope_degrees"`
}
