package model

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxObservationsBytes bounds the free-text observations field.
	MaxObservationsBytes = 16 * 1024
	// MaxImageBytes bounds an uploaded image.
	MaxImageBytes = 5 << 20
	// MaxChildAgeMonths is the oldest age the screening accepts (18 years).
	MaxChildAgeMonths = 216
)

var validate = validator.New()

// Validator returns the shared validator used for request and report checks
func Validator() *validator.Validate {
	return validate
}

// ScreeningRequest is the JSON body of POST /v1/screenings and /v1/classify
type ScreeningRequest struct {
	ChildAge      *int   `json:"childAge" validate:"required,gte=0,lte=216"`
	Domain        string `json:"domain" validate:"omitempty,oneof=communication gross_motor fine_motor cognitive social"`
	Observations  string `json:"observations"`
	ImageBase64   string `json:"imageBase64,omitempty" validate:"omitempty,base64"`
	ImageMimeType string `json:"imageMimeType,omitempty" validate:"required_with=ImageBase64,omitempty,oneof=image/jpeg image/png image/webp"`
}

// ErrObservationsTooLong is returned for observations over MaxObservationsBytes
var ErrObservationsTooLong = errors.New("observations exceed 16 KiB")

// Validate checks the request against its struct tags and size limits
func (r *ScreeningRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(r.Observations) > MaxObservationsBytes {
		return ErrObservationsTooLong
	}
	return nil
}

// ScreeningSubmission is a decoded request ready for the screening service
type ScreeningSubmission struct {
	AgeMonths      int
	Domain         string
	Observations   string
	Image          []byte
	ImageMimeType  string
	IdempotencyKey string
}

// ScreeningResponse is returned by the screening endpoints
type ScreeningResponse struct {
	*Screening
	Replayed bool `json:"replayed"`
}

// ScreeningList is returned by GET /v1/screenings
type ScreeningList struct {
	Screenings []*Screening `json:"screenings"`
	Count      int          `json:"count"`
}

// ClassifyResponse is returned by POST /v1/classify
type ClassifyResponse struct {
	InputHash string          `json:"inputHash"`
	Report    ScreeningReport `json:"report"`
}
