package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99souls/ariadne/engine/models"
)

func TestAirScore_PrefersAQIOverPM25(t *testing.T) {
	aqi := 40
	pm25 := 200.0 // would score very low on the PM2.5 table
	got := AirScore(&aqi, &pm25)
	assert.Greater(t, got, 8.0)
}

func TestAirScore_FallsBackToPM25(t *testing.T) {
	pm25 := 10.0
	got := AirScore(nil, &pm25)
	assert.Greater(t, got, 9.0)
}

func TestAirScore_NeutralDefaultWhenAbsent(t *testing.T) {
	assert.Equal(t, DefaultAirScore, AirScore(nil, nil))
}

func TestUVScore_LowIsPerfect(t *testing.T) {
	uv := 1.5
	assert.Equal(t, 10.0, UVScore(&uv))
}

func TestUVScore_ExtremeIsLow(t *testing.T) {
	uv := 15.0
	got := UVScore(&uv)
	assert.Less(t, got, 3.5)
}

func TestUVScore_NeutralDefaultWhenAbsent(t *testing.T) {
	assert.Equal(t, DefaultUVScore, UVScore(nil))
}

func TestTerrainScore_LowlandIsPerfect(t *testing.T) {
	elev := 500
	assert.Equal(t, 10.0, TerrainScore(&elev, "hiking"))
}

func TestTerrainScore_RunningPenalizedAboveTwoThousand(t *testing.T) {
	elev := 2600
	withPenalty := TerrainScore(&elev, "running")
	withoutPenalty := TerrainScore(&elev, "hiking")
	assert.Less(t, withPenalty, withoutPenalty)
}

func TestTerrainScore_MountaineeringBonusInSweetSpot(t *testing.T) {
	elev := 2000
	withBonus := TerrainScore(&elev, "mountaineering")
	baseline := TerrainScore(&elev, "hiking")
	assert.Greater(t, withBonus, baseline)
}

func TestTerrainScore_NeutralDefaultWhenAbsent(t *testing.T) {
	assert.Equal(t, DefaultTerrainScore, TerrainScore(nil, "hiking"))
}

func TestTerrainScore_ExactlyAtFifteenHundredMetersYieldsNinePointZero(t *testing.T) {
	elev := 1500
	assert.Equal(t, 9.0, TerrainScore(&elev, "hiking"))
}

func TestApparentTemperature_HeatIndexAboveThreshold(t *testing.T) {
	got := ApparentTemperature(35, 60, 5)
	assert.Greater(t, got, 35.0)
}

func TestApparentTemperature_WindChillBelowThreshold(t *testing.T) {
	got := ApparentTemperature(-5, 50, 30)
	assert.Less(t, got, -5.0)
}

func TestApparentTemperature_RawInNeutralBand(t *testing.T) {
	got := ApparentTemperature(20, 50, 3)
	assert.Equal(t, 20.0, got)
}

func TestWeatherScore_NeutralDefaultWhenAbsent(t *testing.T) {
	assert.Equal(t, DefaultWeatherScore, WeatherScore(nil))
}

func TestWeatherScore_ComfortableBandIsPerfect(t *testing.T) {
	h := &models.WeatherHour{TempC: 20, HumidityPct: 50, WindKmh: 10}
	assert.Equal(t, 10.0, WeatherScore(h))
}

func TestWeatherScore_HighWindPenalty(t *testing.T) {
	calm := &models.WeatherHour{TempC: 20, HumidityPct: 50, WindKmh: 10}
	windy := &models.WeatherHour{TempC: 20, HumidityPct: 50, WindKmh: 65}
	assert.Less(t, WeatherScore(windy), WeatherScore(calm))
}

func TestWeatherScore_HeavyPrecipPenalty(t *testing.T) {
	dry := &models.WeatherHour{TempC: 20, HumidityPct: 50, WindKmh: 10}
	wet := &models.WeatherHour{TempC: 20, HumidityPct: 50, WindKmh: 10, PrecipMM: 55}
	assert.Less(t, WeatherScore(wet), WeatherScore(dry))
}

func TestWeatherScore_ClampedToZero(t *testing.T) {
	h := &models.WeatherHour{TempC: 45, HumidityPct: 95, WindKmh: 70, PrecipMM: 60}
	got := WeatherScore(h)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestScore_NeverPanicsOnEmptyInputs(t *testing.T) {
	result := Score(Inputs{Activity: "hiking"})
	assert.Equal(t, DefaultAirScore, result.SubScores.Air)
	assert.Equal(t, DefaultWeatherScore, result.SubScores.Weather)
	assert.Equal(t, DefaultUVScore, result.SubScores.UV)
	assert.Equal(t, DefaultTerrainScore, result.SubScores.Terrain)
	assert.InDelta(t, 7.0, result.Score, 0.5)
}

func TestScore_BoundedZeroToTen(t *testing.T) {
	aqi := 500
	uv := 15.0
	elev := 9000
	h := &models.WeatherHour{TempC: 45, HumidityPct: 95, WindKmh: 70, PrecipMM: 60}
	result := Score(Inputs{Activity: "mountaineering", AQI: &aqi, UVIndex: &uv, ElevationM: &elev, WeatherHour: h})
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 10.0)
	assert.Equal(t, models.RiskPoor, result.Category)
}

func TestCategoryForRiskScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  models.RiskCategory
	}{
		{8.5, models.RiskExcellent},
		{10.0, models.RiskExcellent},
		{7.0, models.RiskGood},
		{8.49, models.RiskGood},
		{5.5, models.RiskFair},
		{6.99, models.RiskFair},
		{4.0, models.RiskCaution},
		{5.49, models.RiskCaution},
		{3.99, models.RiskPoor},
		{0.0, models.RiskPoor},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CategoryForRiskScore(c.score), "score=%v", c.score)
	}
}

func TestWarnings_HazardousAQI(t *testing.T) {
	aqi := 250
	warnings := Warnings(Inputs{AQI: &aqi})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "hazardous")
}

func TestWarnings_UnhealthyForSensitiveGroups(t *testing.T) {
	aqi := 120
	warnings := Warnings(Inputs{AQI: &aqi})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "sensitive groups")
}

func TestWarnings_ExtremeAltitude(t *testing.T) {
	elev := 4500
	warnings := Warnings(Inputs{ElevationM: &elev})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "altitude sickness")
}

func TestWarnings_CombinesMultiplePredicates(t *testing.T) {
	aqi := 250
	elev := 4500
	h := &models.WeatherHour{TempC: 40, WindKmh: 70, PrecipMM: 60}
	warnings := Warnings(Inputs{AQI: &aqi, ElevationM: &elev, WeatherHour: h})
	assert.Greater(t, len(warnings), 3)
}

func TestWarnings_EmptyWhenAllAbsent(t *testing.T) {
	assert.Empty(t, Warnings(Inputs{}))
}
