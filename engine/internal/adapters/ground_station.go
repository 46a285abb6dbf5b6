package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

// GroundStationConfig configures the two-step catalog+fetch client.
type GroundStationConfig struct {
	CatalogURL string
	APIKey     string
	RadiusKM   float64
	HTTPClient *http.Client
}

// GroundStationAdapter resolves nearby stations, fetches each concurrently,
// and averages their readings — the same "catalog, then fan out per
// station" shape used to refresh many points from one upstream network.
type GroundStationAdapter struct {
	cfg GroundStationConfig
	log logging.Logger
}

func NewGroundStationAdapter(cfg GroundStationConfig, log logging.Logger) *GroundStationAdapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 8 * time.Second}
	}
	if cfg.RadiusKM <= 0 {
		cfg.RadiusKM = 25
	}
	return &GroundStationAdapter{cfg: cfg, log: log}
}

// nearestStationCap bounds how many stations are queried for latest
// measurements once the catalog lookup resolves the candidate set.
const nearestStationCap = 5

type stationSensor struct {
	ID        string `json:"sensor_id"`
	Parameter string `json:"parameter_name"`
}

type stationRef struct {
	ID      string          `json:"id"`
	Lat     float64         `json:"lat"`
	Lon     float64         `json:"lon"`
	Sensors []stationSensor `json:"sensors"`
}

type stationMeasurement struct {
	SensorID string  `json:"sensorsId"`
	Value    float64 `json:"value"`
}

// Fetch resolves the nearest stations within RadiusKM of (lat, lon), maps
// each station's sensors to pollutant parameters, and averages the pm25/no2
// readings across up to nearestStationCap stations. Never returns an error:
// an empty or all-failed station set yields Absent.
func (a *GroundStationAdapter) Fetch(ctx context.Context, lat, lon float64) Result[models.PollutantSample] {
	stations, err := a.nearbyStations(ctx, lat, lon)
	if err != nil {
		a.log.ErrorCtx(ctx, "ground_station: catalog lookup failed", "cause", err.Error())
		return Absent[models.PollutantSample]("catalog lookup failed: " + err.Error())
	}
	if len(stations) == 0 {
		return Absent[models.PollutantSample]("no stations within radius")
	}

	sensorParam := map[string]string{}
	for _, st := range stations {
		for _, s := range st.Sensors {
			if s.Parameter == "pm25" || s.Parameter == "no2" {
				sensorParam[s.ID] = s.Parameter
			}
		}
	}

	sort.Slice(stations, func(i, j int) bool {
		return DistanceKM(lat, lon, stations[i].Lat, stations[i].Lon) < DistanceKM(lat, lon, stations[j].Lat, stations[j].Lon)
	})
	if len(stations) > nearestStationCap {
		stations = stations[:nearestStationCap]
	}

	type result struct {
		readings []stationMeasurement
		err      error
	}
	results := make([]result, len(stations))
	var wg sync.WaitGroup
	for i, st := range stations {
		wg.Add(1)
		go func(i int, st stationRef) {
			defer wg.Done()
			r, err := a.fetchStation(ctx, st)
			results[i] = result{readings: r, err: err}
		}(i, st)
	}
	wg.Wait()

	var pm25Sum, no2Sum float64
	var pm25N, no2N, used int
	for i, r := range results {
		if r.err != nil {
			a.log.ErrorCtx(ctx, "ground_station: station fetch failed", "station_id", stations[i].ID, "cause", r.err.Error())
			continue
		}
		used++
		for _, m := range r.readings {
			switch sensorParam[m.SensorID] {
			case "pm25":
				pm25Sum += m.Value
				pm25N++
			case "no2":
				no2Sum += no2ToPPB(m.Value)
				no2N++
			}
		}
	}
	if used == 0 {
		return Absent[models.PollutantSample]("all station fetches failed")
	}

	sample := models.PollutantSample{StationsUsed: used}
	if pm25N > 0 {
		v := pm25Sum / float64(pm25N)
		sample.PM25UgM3 = &v
	}
	if no2N > 0 {
		v := no2Sum / float64(no2N)
		sample.NO2PPB = &v
	}
	now := time.Now().UTC()
	sample.Timestamp = &now
	if sample.Empty() {
		return Absent[models.PollutantSample]("stations returned no pollutant values")
	}
	return Ok(sample)
}

// no2ToPPB applies the documented unit-inference heuristic: a raw sensor
// value below 1 is assumed to be ppm, converted to µg/m³ (x1880), then to
// ppb (/1.88). A value at or above 1 is assumed to already be ppb.
func no2ToPPB(v float64) float64 {
	if v < 1 {
		ugm3 := v * 1880
		return ugm3 / 1.88
	}
	return v
}

func (a *GroundStationAdapter) nearbyStations(ctx context.Context, lat, lon float64) ([]stationRef, error) {
	url := fmt.Sprintf("%s?lat=%f&lon=%f&radius_km=%f", a.cfg.CatalogURL, lat, lon, a.cfg.RadiusKM)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	a.authorize(req)
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
	var stations []stationRef
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (a *GroundStationAdapter) fetchStation(ctx context.Context, st stationRef) ([]stationMeasurement, error) {
	url := fmt.Sprintf("%s/%s/latest", a.cfg.CatalogURL, st.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	a.authorize(req)
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("station %s returned status %d", st.ID, resp.StatusCode)
	}
	var readings []stationMeasurement
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return nil, err
	}
	return readings, nil
}

func (a *GroundStationAdapter) authorize(req *http.Request) {
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}
}

// DistanceKM is exposed for tests validating station filtering.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	sLat := math.Sin(dLat / 2)
	sLon := math.Sin(dLon / 2)
	h := sLat*sLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sLon*sLon
	return r * 2 * math.Asin(math.Sqrt(h))
}
