package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"checkpoint-quiz/internal/app"
	"checkpoint-quiz/internal/domain"
)

// MaxUploadBytes caps the size of an uploaded CSV body.
const MaxUploadBytes = 1 << 20

var (
	errUnsupported    = errors.New("unsupported message type")
	errMissingPayload = errors.New("missing payload")
)

func errInvalidPayload(kind string) error {
	return fmt.Errorf("invalid %s payload", kind)
}

// QuestionSetsHandler serves preset listing and CSV uploads.
type QuestionSetsHandler struct {
	service *app.QuizService
}

func NewQuestionSetsHandler(service *app.QuizService) *QuestionSetsHandler {
	return &QuestionSetsHandler{service: service}
}

// List writes the selectable question sets.
func (h *QuestionSetsHandler) List(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.Presets(r.Context())
	if err != nil {
		log.Printf("list question sets: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list question sets")
		return
	}
	if sets == nil {
		sets = []domain.QuestionSetSummary{}
	}
	writeJSON(w, http.StatusOK, sets)
}

// Upload parses a CSV body into a new question set named by the "name" query parameter.
func (h *QuestionSetsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	defer body.Close()

	summary, err := h.service.Upload(r.Context(), r.URL.Query().Get("name"), body)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, summary)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
	case errors.Is(err, domain.ErrEmptyQuestionSet):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("upload question set: %v", err)
		writeError(w, http.StatusInternalServerError, "could not store question set")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}
