package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/99souls/ariadne/engine/internal/adapters/satellite"
	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

// SatelliteConfig configures the granule catalog lookup and credentials.
type SatelliteConfig struct {
	CatalogURL string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// SatelliteAdapter resolves the nearest geostationary NO2 pixel for a point.
// It never returns an error: every failure mode collapses to Absent after
// being logged with the granule id and cause.
type SatelliteAdapter struct {
	cfg    SatelliteConfig
	log    logging.Logger
	opener func(path string) (satellite.Dataset, error)
}

// NewSatelliteAdapter builds an adapter against the real granule catalog and
// NetCDF backend.
func NewSatelliteAdapter(cfg SatelliteConfig, log logging.Logger) *SatelliteAdapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SatelliteAdapter{cfg: cfg, log: log, opener: satellite.OpenFile}
}

// WithOpener overrides the granule opener, used by tests to inject a
// satellite.FakeDataset without touching the NetCDF C library.
func (a *SatelliteAdapter) WithOpener(opener func(path string) (satellite.Dataset, error)) *SatelliteAdapter {
	a.opener = opener
	return a
}

type catalogEntry struct {
	GranuleID string    `json:"granule_id"`
	Path      string     `json:"path"`
	Time      time.Time `json:"observation_time"`
}

// Fetch resolves the nearest granule covering (lat, lon) and extracts its
// NO2 pixel. It never returns a Go error — upstream failures are logged and
// surfaced as an Absent Result.
func (a *SatelliteAdapter) Fetch(ctx context.Context, lat, lon float64) Result[models.SatellitePixel] {
	granule, path, err := a.resolveGranule(ctx, lat, lon)
	if err != nil {
		a.log.ErrorCtx(ctx, "satellite: catalog lookup failed", "cause", err.Error())
		return Absent[models.SatellitePixel]("catalog lookup failed: " + err.Error())
	}

	ds, err := a.opener(path)
	if err != nil {
		a.log.ErrorCtx(ctx, "satellite: open granule failed", "granule_id", granule, "cause", err.Error())
		return Absent[models.SatellitePixel]("open granule failed: " + err.Error())
	}
	defer ds.Close()

	latGrid, lonGrid, err := ds.Dims()
	if err != nil {
		a.log.ErrorCtx(ctx, "satellite: read dims failed", "granule_id", granule, "cause", err.Error())
		return Absent[models.SatellitePixel]("read dims failed: " + err.Error())
	}

	i := satellite.NearestIndex(latGrid, lat)
	j := satellite.NearestIndex(lonGrid, lon)

	column, err := ds.ReadScalar("no2_column", i, j)
	if err != nil {
		a.log.ErrorCtx(ctx, "satellite: read no2_column failed", "granule_id", granule, "cause", err.Error())
		return Absent[models.SatellitePixel]("read no2_column failed: " + err.Error())
	}

	qflag, err := ds.ReadQualityFlag(i, j)
	if err != nil {
		a.log.ErrorCtx(ctx, "satellite: read quality flag failed", "granule_id", granule, "cause", err.Error())
		return Absent[models.SatellitePixel]("read quality flag failed: " + err.Error())
	}

	pixel := models.SatellitePixel{
		NO2ColumnMolecCM2: column,
		NO2PPB:            column / models.SatNO2ScaleFactor,
		QualityFlag:       models.QualityFlag(qflag),
		GranuleID:         granule,
		ObservationTime:   time.Now().UTC(),
		PixelOffsetKM:     haversineKM(lat, lon, latGrid[i], lonGrid[j]),
	}
	if pixel.QualityFlag == models.QualityBad {
		return Absent[models.SatellitePixel]("pixel quality flagged bad for granule " + granule)
	}
	return Ok(pixel)
}

func (a *SatelliteAdapter) resolveGranule(ctx context.Context, lat, lon float64) (granuleID, path string, err error) {
	url := fmt.Sprintf("%s?lat=%f&lon=%f", a.cfg.CatalogURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	if a.cfg.Username != "" {
		req.SetBasicAuth(a.cfg.Username, a.cfg.Password)
	}
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
	var entry catalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return "", "", err
	}
	return entry.GranuleID, entry.Path, nil
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	sinHalfLat := math.Sin(dLat / 2)
	sinHalfLon := math.Sin(dLon / 2)
	a := sinHalfLat*sinHalfLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinHalfLon*sinHalfLon
	c := 2 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}
