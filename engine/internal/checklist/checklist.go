// Package checklist derives an activity-specific gear checklist from risk
// and weather inputs. Rules compose into a map keyed by item string so
// "dedupe by item string" is literally a Go map key, mirroring the weighted
// independently-computed factor folding the rest of the engine uses for
// composite results.
package checklist

import (
	"sort"
	"strings"

	"github.com/99souls/ariadne/engine/models"
)

// Inputs bundles everything a rule needs to decide whether to fire.
type Inputs struct {
	Activity      string
	AQI           *int
	UVIndex       *float64
	ElevationM    *int
	WeatherHour   *models.WeatherHour
	ApparentTempC *float64
}

var baseSets = map[string][]models.ChecklistItem{
	"hiking": {
		{Item: "Hiking boots", Required: true, Reason: "ankle support and traction on trail", Category: models.CategoryClothing},
		{Item: "Water (2L)", Required: true, Reason: "baseline hydration for a multi-hour hike", Category: models.CategoryHydration},
		{Item: "Map or GPS device", Required: true, Reason: "navigation in areas without signage", Category: models.CategoryNavigation},
		{Item: "First aid kit", Required: false, Reason: "basic injury treatment", Category: models.CategorySafety},
	},
	"trail_running": {
		{Item: "Trail running shoes", Required: true, Reason: "grip on uneven terrain", Category: models.CategoryClothing},
		{Item: "Hydration vest", Required: true, Reason: "hands-free water on the move", Category: models.CategoryHydration},
		{Item: "Whistle", Required: false, Reason: "signal for help if injured", Category: models.CategorySafety},
	},
	"running": {
		{Item: "Running shoes", Required: true, Reason: "cushioning for repetitive impact", Category: models.CategoryClothing},
		{Item: "Water bottle", Required: true, Reason: "hydration during exertion", Category: models.CategoryHydration},
	},
	"cycling": {
		{Item: "Helmet", Required: true, Reason: "head protection in a fall or collision", Category: models.CategorySafety},
		{Item: "Water bottle", Required: true, Reason: "hydration during exertion", Category: models.CategoryHydration},
		{Item: "Bike repair kit", Required: false, Reason: "roadside flat/chain repair", Category: models.CategoryGeneral},
	},
	"camping": {
		{Item: "Tent", Required: true, Reason: "shelter overnight", Category: models.CategoryShelter},
		{Item: "Sleeping bag", Required: true, Reason: "overnight warmth", Category: models.CategoryShelter},
		{Item: "Water (4L)", Required: true, Reason: "hydration across an overnight stay", Category: models.CategoryHydration},
	},
	"rock_climbing": {
		{Item: "Climbing harness", Required: true, Reason: "fall protection", Category: models.CategorySafety},
		{Item: "Helmet", Required: true, Reason: "protection from falling rock", Category: models.CategorySafety},
		{Item: "Chalk bag", Required: false, Reason: "grip maintenance", Category: models.CategoryGeneral},
	},
	"mountaineering": {
		{Item: "Mountaineering boots", Required: true, Reason: "rigid sole for crampon use", Category: models.CategoryClothing},
		{Item: "Ice axe", Required: true, Reason: "self-arrest on steep snow", Category: models.CategorySafety},
		{Item: "Helmet", Required: true, Reason: "protection from rockfall and falls", Category: models.CategorySafety},
	},
}

var genericFallback = []models.ChecklistItem{
	{Item: "Water (2L)", Required: true, Reason: "baseline hydration", Category: models.CategoryHydration},
	{Item: "First aid kit", Required: false, Reason: "basic injury treatment", Category: models.CategorySafety},
	{Item: "Phone with charged battery", Required: true, Reason: "emergency contact", Category: models.CategorySafety},
}

// Build composes the full checklist for the given inputs, per spec.md §4.5.
func Build(in Inputs) []models.ChecklistItem {
	items := map[string]models.ChecklistItem{}

	activity := normalize(in.Activity)
	base, ok := baseSets[activity]
	if !ok {
		base = genericFallback
	}
	for _, it := range base {
		add(items, it)
	}

	applyTemperatureRules(items, in.WeatherHour, in.ApparentTempC)
	applyAirQualityRules(items, in.AQI)
	applyUVRules(items, in.UVIndex)
	applyWindRules(items, in.WeatherHour)
	applyPrecipRules(items, in.WeatherHour)
	applyElevationRules(items, in.ElevationM)
	applyActivityRules(items, activity, in)

	return sortedItems(items)
}

func normalize(activity string) string {
	return strings.ToLower(strings.TrimSpace(activity))
}

// add inserts it unless that would downgrade an existing required entry —
// an existing required entry always wins, a required incoming item upgrades
// an existing optional one, and otherwise the incoming item is inserted.
func add(items map[string]models.ChecklistItem, it models.ChecklistItem) {
	existing, ok := items[it.Item]
	if !ok {
		items[it.Item] = it
		return
	}
	if it.Required && !existing.Required {
		items[it.Item] = it
		return
	}
	// existing already required, or neither is required: keep existing.
}

func applyTemperatureRules(items map[string]models.ChecklistItem, wh *models.WeatherHour, apparentTempC *float64) {
	if wh == nil {
		return
	}
	apparent := wh.TempC
	if apparentTempC != nil {
		apparent = *apparentTempC
	}
	switch {
	case apparent <= -10:
		for _, it := range []models.ChecklistItem{
			{Item: "Insulated jacket", Required: true, Reason: "core warmth in severe cold", Category: models.CategoryClothing},
			{Item: "Lined gloves", Required: true, Reason: "prevent frostbite on extremities", Category: models.CategoryClothing},
			{Item: "Balaclava", Required: true, Reason: "face protection from wind chill", Category: models.CategoryClothing},
			{Item: "Insulated boots", Required: true, Reason: "prevent frostbite on feet", Category: models.CategoryClothing},
			{Item: "Emergency bivouac", Required: true, Reason: "shelter if stranded in severe cold", Category: models.CategorySafety},
		} {
			add(items, it)
		}
	case apparent <= 10:
		add(items, models.ChecklistItem{Item: "Light jacket", Required: false, Reason: "warmth in cool conditions", Category: models.CategoryClothing})
		add(items, models.ChecklistItem{Item: "Base layers", Required: false, Reason: "insulation in cool conditions", Category: models.CategoryClothing})
	}
	if apparent >= 35 {
		for _, it := range []models.ChecklistItem{
			{Item: "Water (4-6L)", Required: true, Reason: "elevated hydration needs in extreme heat", Category: models.CategoryHydration},
			{Item: "Electrolytes", Required: false, Reason: "replace salts lost to heavy sweating", Category: models.CategoryHydration},
			{Item: "Cooling towel", Required: false, Reason: "evaporative cooling in extreme heat", Category: models.CategoryClothing},
			{Item: "Brimmed hat", Required: false, Reason: "shade from direct sun", Category: models.CategorySunProt},
		} {
			add(items, it)
		}
	}
}

func applyAirQualityRules(items map[string]models.ChecklistItem, aqi *int) {
	if aqi == nil {
		return
	}
	switch {
	case *aqi > 150:
		add(items, models.ChecklistItem{Item: "N95/P100 mask", Required: true, Reason: "unhealthy air quality", Category: models.CategoryRespiratory})
		add(items, models.ChecklistItem{Item: "Eye protection", Required: false, Reason: "irritation from poor air quality", Category: models.CategoryRespiratory})
	case *aqi > 100:
		add(items, models.ChecklistItem{Item: "N95/P100 mask", Required: false, Reason: "air quality unhealthy for sensitive groups", Category: models.CategoryRespiratory})
	}
}

func applyUVRules(items map[string]models.ChecklistItem, uv *float64) {
	if uv == nil {
		return
	}
	switch {
	case *uv >= 11:
		for _, it := range []models.ChecklistItem{
			{Item: "SPF50+ sunscreen", Required: true, Reason: "extreme UV exposure", Category: models.CategorySunProt},
			{Item: "UV sunglasses", Required: true, Reason: "extreme UV exposure", Category: models.CategorySunProt},
			{Item: "UPF50+ clothing", Required: true, Reason: "extreme UV exposure", Category: models.CategorySunProt},
		} {
			add(items, it)
		}
	case *uv >= 8:
		for _, it := range []models.ChecklistItem{
			{Item: "SPF50+ sunscreen", Required: true, Reason: "very high UV exposure", Category: models.CategorySunProt},
			{Item: "UV sunglasses", Required: true, Reason: "very high UV exposure", Category: models.CategorySunProt},
			{Item: "Brimmed hat", Required: true, Reason: "very high UV exposure", Category: models.CategorySunProt},
		} {
			add(items, it)
		}
	}
}

func applyWindRules(items map[string]models.ChecklistItem, wh *models.WeatherHour) {
	if wh == nil {
		return
	}
	switch {
	case wh.WindKmh >= 60:
		add(items, models.ChecklistItem{Item: "Windproof shell", Required: true, Reason: "dangerously high winds", Category: models.CategoryClothing})
		add(items, models.ChecklistItem{Item: "Goggles", Required: true, Reason: "dangerously high winds", Category: models.CategorySafety})
	case wh.WindKmh >= 40:
		add(items, models.ChecklistItem{Item: "Windproof jacket", Required: true, Reason: "strong sustained wind", Category: models.CategoryClothing})
	}
}

func applyPrecipRules(items map[string]models.ChecklistItem, wh *models.WeatherHour) {
	if wh == nil {
		return
	}
	switch {
	case wh.PrecipMM >= 50:
		for _, it := range []models.ChecklistItem{
			{Item: "Waterproof jacket", Required: true, Reason: "heavy precipitation expected", Category: models.CategoryClothing},
			{Item: "Waterproof pants", Required: true, Reason: "heavy precipitation expected", Category: models.CategoryClothing},
			{Item: "Pack cover", Required: true, Reason: "heavy precipitation expected", Category: models.CategoryGeneral},
			{Item: "Dry clothes", Required: true, Reason: "heavy precipitation expected", Category: models.CategoryClothing},
			{Item: "Waterproof boots", Required: true, Reason: "heavy precipitation expected", Category: models.CategoryClothing},
		} {
			add(items, it)
		}
	case wh.PrecipMM >= 20:
		add(items, models.ChecklistItem{Item: "Rain jacket", Required: true, Reason: "moderate precipitation expected", Category: models.CategoryClothing})
		add(items, models.ChecklistItem{Item: "Pack cover", Required: false, Reason: "moderate precipitation expected", Category: models.CategoryGeneral})
	}
}

func applyElevationRules(items map[string]models.ChecklistItem, elevationM *int) {
	if elevationM == nil {
		return
	}
	switch {
	case *elevationM >= 4000:
		add(items, models.ChecklistItem{Item: "Altitude medication", Required: true, Reason: "severe altitude risk", Category: models.CategoryAltitude})
		add(items, models.ChecklistItem{Item: "Pulse oximeter", Required: false, Reason: "monitor for altitude sickness symptoms", Category: models.CategoryAltitude})
		add(items, models.ChecklistItem{Item: "Extra snacks", Required: true, Reason: "elevated caloric demand at altitude", Category: models.CategoryGeneral})
	case *elevationM >= 3000:
		add(items, models.ChecklistItem{Item: "Altitude medication", Required: false, Reason: "moderate altitude risk", Category: models.CategoryAltitude})
	}
}

func applyActivityRules(items map[string]models.ChecklistItem, activity string, in Inputs) {
	isAerobic := activity == "running" || activity == "cycling" || activity == "trail_running"
	isTechnical := activity == "rock_climbing" || activity == "mountaineering"

	if isAerobic && in.AQI != nil && *in.AQI > 100 {
		add(items, models.ChecklistItem{Item: "Consider an indoor alternative", Required: false, Reason: "aerobic exertion in degraded air quality", Category: models.CategoryAdvisory})
	}
	if isTechnical && in.WeatherHour != nil && in.WeatherHour.WindKmh > 40 {
		add(items, models.ChecklistItem{Item: "Consider postponing", Required: false, Reason: "technical activity in high wind", Category: models.CategoryAdvisory})
	}

	extreme := false
	if in.WeatherHour != nil && (in.WeatherHour.TempC > 32 || in.WeatherHour.TempC < -5) {
		extreme = true
	}
	if in.AQI != nil && *in.AQI > 150 {
		extreme = true
	}
	if extreme {
		add(items, models.ChecklistItem{Item: "Emergency communication device", Required: false, Reason: "extreme conditions expected", Category: models.CategorySafety})
	}
}

func sortedItems(items map[string]models.ChecklistItem) []models.ChecklistItem {
	out := make([]models.ChecklistItem, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Required != out[j].Required {
			return out[i].Required
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Item < out[j].Item
	})
	return out
}
