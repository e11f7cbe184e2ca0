package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
)

const (
	maxBodyBytes   = 1 << 20
	rawPreviewLen  = 2000
	emptyAIMessage = "No valid content returned by AI."
)

// Responder writes the error envelope. Outside production it adds diagnostic details.
type Responder struct {
	production bool
	log        *logger.Logger
	validate   *validator.Validate
}

func NewResponder(production bool, log *logger.Logger) *Responder {
	return &Responder{production: production, log: log.With("component", "http"), validate: newValidator()}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return services.ValidPhone(fl.Field().String())
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

func (h *Responder) withDetails(resp models.ErrorResponse, details string) models.ErrorResponse {
	if !h.production {
		resp.Error.Details = details
	}
	return resp
}

// handleServiceError maps the service error taxonomy onto status codes.
func (h *Responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		rl *services.RateLimitError
		pe *services.ParseError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", ve.Fields, r))
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", nf.Message, r))
	case errors.As(err, &rl):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", rl.Message, r))
	case errors.As(err, &pe):
		msg := "Could not parse AI response"
		if errors.Is(pe, services.ErrUnexpectedShape) {
			msg = "Unexpected AI response format"
		}
		writeJSON(w, http.StatusBadGateway, h.withDetails(
			errorResp("AI_PARSE_ERROR", msg, r), logger.Preview(pe.Raw, rawPreviewLen)))
	case errors.Is(err, services.ErrGenerationFailed):
		writeJSON(w, http.StatusBadGateway, h.withDetails(
			errorResp("GENERATION_FAILED", "Failed to query model", r), err.Error()))
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", r.Header.Get("X-Request-ID"), "error", err)
		writeJSON(w, http.StatusInternalServerError, h.withDetails(
			errorResp("INTERNAL_ERROR", "An unexpected error occurred", r), err.Error()))
	}
}

// decode reads a JSON body into dst and runs struct validation. On failure the
// response is already written and false is returned.
func (h *Responder) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, h.withDetails(errorResp("VALIDATION_ERROR", "Invalid request body", r), err.Error()))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors(verrs), r))
			return false
		}
		h.handleServiceError(w, r, err)
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be 7 to 15 digits, optionally prefixed with +"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return "must be a positive integer"
	case "gte", "lte":
		return fmt.Sprintf("must be %s %s", map[string]string{"gte": "at least", "lte": "at most"}[fe.Tag()], fe.Param())
	default:
		return "is invalid"
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Fields: map[string]string{name: "must be a positive integer"}}
	}
	return id, nil
}
