package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Prompt    string `json:"prompt" validate:"required,min=1,max=1000"`
	DateRange string `json:"dateRange,omitempty"`
}

// DashboardRequest is the body of POST /api/dashboard.
type DashboardRequest struct {
	Prompt          string `json:"prompt" validate:"required,min=1,max=1000"`
	DateRange       string `json:"dateRange,omitempty"`
	NumberOfCharts  int    `json:"numberOfCharts,omitempty" validate:"omitempty,min=1,max=8"`
	IncludeInsights *bool  `json:"includeInsights,omitempty"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty" validate:"omitempty,max=500"`
	ChartID   string `json:"chartId,omitempty"`
}

// decodeAndValidate decodes a JSON request body into dst and runs the
// struct validation tags. A false return means an error response has
// already been written.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage turns the first field error into a readable message.
func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
