package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

func TestSummaryAdapter_FallsBackToTemplateWithoutAPIKey(t *testing.T) {
	a := NewSummaryAdapter(SummaryConfig{}, logging.New(nil))

	air := models.AirQuality{AQI: 42, Category: models.AQIGood, DominantPollutant: models.DominantPM25}
	weather := models.WeatherHour{TempC: 22, WindKmh: 10}
	risk := models.RiskScore{Score: 8.2, Category: models.RiskGood}

	got := a.Generate(context.Background(), "hiking", air, weather, risk)
	assert.Contains(t, got, "hiking")
	assert.Contains(t, got, "Good")
	assert.Contains(t, got, "8.2")
}

func TestSummaryAdapter_DefaultsModelWhenUnset(t *testing.T) {
	a := NewSummaryAdapter(SummaryConfig{}, logging.New(nil))
	assert.NotEmpty(t, a.model)
}
