package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

// SummaryConfig configures the optional LLM-backed narrative summary. An
// empty APIKey disables the client entirely — the generator then always
// falls back to the template.
type SummaryConfig struct {
	APIKey string
	Model  string
}

// SummaryAdapter produces a short natural-language trip summary, falling
// back to a deterministic template on any failure — including a missing
// API key, an upstream error, or an empty completion.
type SummaryAdapter struct {
	client *openai.Client
	model  string
	log    logging.Logger
}

func NewSummaryAdapter(cfg SummaryConfig, log logging.Logger) *SummaryAdapter {
	a := &SummaryAdapter{log: log, model: cfg.Model}
	if a.model == "" {
		a.model = openai.GPT4oMini
	}
	if cfg.APIKey != "" {
		a.client = openai.NewClient(cfg.APIKey)
	}
	return a
}

// Generate returns a prose summary for the merged analysis. It never
// returns an error — any failure downgrades to the template summary.
func (a *SummaryAdapter) Generate(ctx context.Context, activity string, air models.AirQuality, weather models.WeatherHour, risk models.RiskScore) string {
	if a.client == nil {
		return templateSummary(activity, air, weather, risk)
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 150,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(activity, air, weather, risk)},
		},
	})
	if err != nil {
		a.log.ErrorCtx(ctx, "summary: completion failed", "cause", err.Error())
		return templateSummary(activity, air, weather, risk)
	}
	if len(resp.Choices) == 0 {
		return templateSummary(activity, air, weather, risk)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return templateSummary(activity, air, weather, risk)
	}
	return content
}

func buildPrompt(activity string, air models.AirQuality, weather models.WeatherHour, risk models.RiskScore) string {
	var b strings.Builder
	b.WriteString("Write a two-sentence outdoor safety summary for someone planning to go ")
	b.WriteString(activity)
	b.WriteString(" today.\n")
	fmt.Fprintf(&b, "Air quality index: %d (%s), dominant pollutant %s.\n", air.AQI, air.Category, air.DominantPollutant)
	fmt.Fprintf(&b, "Weather: %.0fC, wind %.0f km/h, UV index %.0f.\n", weather.TempC, weather.WindKmh, weather.UVIndex)
	fmt.Fprintf(&b, "Overall risk score: %.1f/10 (%s).\n", risk.Score, risk.Category)
	b.WriteString("Be factual and concise, no markdown formatting.")
	return b.String()
}

func templateSummary(activity string, air models.AirQuality, weather models.WeatherHour, risk models.RiskScore) string {
	return fmt.Sprintf(
		"Conditions for %s today are rated %s (score %.1f/10). Air quality is %s (AQI %d), with a temperature of %.0fC and wind at %.0f km/h.",
		activity, risk.Category, risk.Score, air.Category, air.AQI, weather.TempC, weather.WindKmh,
	)
}
