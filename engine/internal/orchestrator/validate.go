package orchestrator

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/99souls/ariadne/engine/models"
)

var validate = validator.New()

// validatedRequest is the struct-tag-driven shape validator.v10 checks;
// AnalyzeRequest itself stays tag-free since it is also the wire contract.
type validatedRequest struct {
	Activity      string  `validate:"required"`
	Lat           float64 `validate:"gte=-90,lte=90"`
	Lon           float64 `validate:"gte=-180,lte=180"`
	DurationHours int     `validate:"omitempty,gte=1,lte=72"`
}

// Normalize fills request defaults (duration_hours, start_time) and
// validates ranges, returning *ValidationError on failure.
func Normalize(req models.AnalyzeRequest) (models.AnalyzeRequest, error) {
	if req.DurationHours == 0 {
		req.DurationHours = 4
	}
	if req.StartTime == nil {
		now := time.Now().UTC()
		req.StartTime = &now
	}

	if math.IsNaN(req.Lat) || math.IsInf(req.Lat, 0) {
		return req, &ValidationError{Cause: models.ErrInvalidLatitude}
	}
	if math.IsNaN(req.Lon) || math.IsInf(req.Lon, 0) {
		return req, &ValidationError{Cause: models.ErrInvalidLongitude}
	}

	if err := validate.Struct(validatedRequest{
		Activity:      req.Activity,
		Lat:           req.Lat,
		Lon:           req.Lon,
		DurationHours: req.DurationHours,
	}); err != nil {
		return req, &ValidationError{Cause: translateValidationError(err)}
	}
	return req, nil
}

func translateValidationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].Field() {
	case "Lat":
		return models.ErrInvalidLatitude
	case "Lon":
		return models.ErrInvalidLongitude
	case "DurationHours":
		return models.ErrInvalidDuration
	case "Activity":
		return models.ErrMissingActivity
	default:
		return err
	}
}
