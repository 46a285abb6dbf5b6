package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

// ElevationConfig names a primary and secondary elevation HTTP endpoint.
// Within one Fetch the secondary is tried once, right after a single failed
// primary attempt; retries and the circuit breaker wrap the whole Fetch.
type ElevationConfig struct {
	PrimaryURL   string
	SecondaryURL string
	HTTPClient   *http.Client
}

// ElevationAdapter resolves terrain for a point with primary/secondary
// fallback.
type ElevationAdapter struct {
	cfg ElevationConfig
	log logging.Logger
}

func NewElevationAdapter(cfg ElevationConfig, log logging.Logger) *ElevationAdapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 6 * time.Second}
	}
	return &ElevationAdapter{cfg: cfg, log: log}
}

type elevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Fetch tries the primary endpoint, then the secondary, never returning an
// error: exhausting both yields Absent.
func (a *ElevationAdapter) Fetch(ctx context.Context, lat, lon float64) Result[models.Terrain] {
	if t, ok := a.tryEndpoint(ctx, a.cfg.PrimaryURL, lat, lon); ok {
		return Ok(t)
	}
	if a.cfg.SecondaryURL == "" {
		return Absent[models.Terrain]("primary endpoint failed and no secondary configured")
	}
	if t, ok := a.tryEndpoint(ctx, a.cfg.SecondaryURL, lat, lon); ok {
		return Ok(t)
	}
	return Absent[models.Terrain]("primary and secondary elevation endpoints both failed")
}

func (a *ElevationAdapter) tryEndpoint(ctx context.Context, base string, lat, lon float64) (models.Terrain, bool) {
	if base == "" {
		return models.Terrain{}, false
	}
	url := fmt.Sprintf("%s?latitude=%f&longitude=%f", base, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		a.log.ErrorCtx(ctx, "elevation: build request failed", "endpoint", base, "cause", err.Error())
		return models.Terrain{}, false
	}
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		a.log.ErrorCtx(ctx, "elevation: request failed", "endpoint", base, "cause", err.Error())
		return models.Terrain{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.log.ErrorCtx(ctx, "elevation: non-200 response", "endpoint", base, "status", resp.StatusCode)
		return models.Terrain{}, false
	}
	var body elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Results) == 0 {
		a.log.ErrorCtx(ctx, "elevation: decode failed", "endpoint", base)
		return models.Terrain{}, false
	}
	elev := int(body.Results[0].Elevation)
	return models.Terrain{ElevationM: elev, TerrainType: models.ClassifyTerrain(elev)}, true
}
