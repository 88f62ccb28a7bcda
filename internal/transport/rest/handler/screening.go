package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"devscreen/internal/model"
	"devscreen/internal/service"
	"devscreen/internal/transport/rest/middleware"
)

// MaxBodyBytes bounds a screening request body, image included
const MaxBodyBytes = 8 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...interface{}) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

// ScreeningHandler handles screening endpoints
type ScreeningHandler struct {
	screeningSvc *service.ScreeningService
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(screeningSvc *service.ScreeningService) *ScreeningHandler {
	return &ScreeningHandler{screeningSvc: screeningSvc}
}

// Create handles POST /v1/screenings
func (h *ScreeningHandler) Create(w http.ResponseWriter, r *http.Request) {
	clinicianID := middleware.GetClinicianID(r.Context())

	sub, err := decodeSubmission(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	sub.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	screening, replayed, err := h.screeningSvc.Submit(r.Context(), clinicianID, sub)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save screening")
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, model.ScreeningResponse{Screening: screening, Replayed: replayed})
}

// List handles GET /v1/screenings
func (h *ScreeningHandler) List(w http.ResponseWriter, r *http.Request) {
	clinicianID := middleware.GetClinicianID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	screenings, err := h.screeningSvc.List(r.Context(), clinicianID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list screenings")
		return
	}
	if screenings == nil {
		screenings = []*model.Screening{}
	}

	writeJSON(w, http.StatusOK, model.ScreeningList{Screenings: screenings, Count: len(screenings)})
}

// Get handles GET /v1/screenings/{screeningId}
func (h *ScreeningHandler) Get(w http.ResponseWriter, r *http.Request) {
	clinicianID := middleware.GetClinicianID(r.Context())
	screeningID := mux.Vars(r)["screeningId"]

	screening, err := h.screeningSvc.Get(r.Context(), clinicianID, screeningID)
	if err != nil {
		if errors.Is(err, service.ErrScreeningNotFound) {
			writeError(w, http.StatusNotFound, "screening not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load screening")
		return
	}

	writeJSON(w, http.StatusOK, model.ScreeningResponse{Screening: screening})
}

// Classify handles POST /v1/classify. It returns the deterministic report
// only; nothing is persisted and the gateway is not called.
func (h *ScreeningHandler) Classify(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ClassifyResponse{
		InputHash: service.ComputeInputHash(sub.AgeMonths, sub.Domain, sub.Observations),
		Report:    h.screeningSvc.Baseline(sub),
	})
}

func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeError(w, reqErr.status, reqErr.message)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// decodeSubmission accepts either a JSON body or multipart/form-data with an
// optional "image" file part
func decodeSubmission(w http.ResponseWriter, r *http.Request) (*model.ScreeningSubmission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return decodeMultipart(r)
	}
	return decodeJSON(r)
}

func decodeJSON(r *http.Request) (*model.ScreeningSubmission, error) {
	var req model.ScreeningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		}
		return nil, badRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return nil, badRequest("invalid request: %v", err)
	}

	sub := &model.ScreeningSubmission{
		AgeMonths:    *req.ChildAge,
		Domain:       req.Domain,
		Observations: req.Observations,
	}
	if req.ImageBase64 != "" {
		image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return nil, badRequest("imageBase64 is not valid base64")
		}
		if err := checkImage(image, req.ImageMimeType); err != nil {
			return nil, err
		}
		sub.Image = image
		sub.ImageMimeType = req.ImageMimeType
	}
	return sub, nil
}

func decodeMultipart(r *http.Request) (*model.ScreeningSubmission, error) {
	if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		}
		return nil, badRequest("invalid multipart body")
	}

	req := model.ScreeningRequest{
		Domain:       r.FormValue("domain"),
		Observations: r.FormValue("observations"),
	}
	if raw := strings.TrimSpace(r.FormValue("childAge")); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badRequest("childAge must be an integer")
		}
		req.ChildAge = &age
	}

	var image []byte
	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, badRequest("invalid image part")
	default:
		defer file.Close()
		image, err = io.ReadAll(io.LimitReader(file, model.MaxImageBytes+1))
		if err != nil {
			return nil, badRequest("failed to read image")
		}
		req.ImageMimeType = header.Header.Get("Content-Type")
		if req.ImageMimeType == "" || req.ImageMimeType == "application/octet-stream" {
			req.ImageMimeType = http.DetectContentType(image)
		}
	}

	if err := req.Validate(); err != nil {
		return nil, badRequest("invalid request: %v", err)
	}

	sub := &model.ScreeningSubmission{
		AgeMonths:    *req.ChildAge,
		Domain:       req.Domain,
		Observations: req.Observations,
	}
	if len(image) > 0 {
		if err := checkImage(image, req.ImageMimeType); err != nil {
			return nil, err
		}
		sub.Image = image
		sub.ImageMimeType = req.ImageMimeType
	}
	return sub, nil
}

func checkImage(image []byte, mimeType string) error {
	if len(image) > model.MaxImageBytes {
		return &requestError{status: http.StatusRequestEntityTooLarge, message: "image exceeds 5 MiB"}
	}
	if !allowedImageTypes[mimeType] {
		return badRequest("unsupported image type %q", mimeType)
	}
	return nil
}
