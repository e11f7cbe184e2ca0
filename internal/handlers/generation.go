package handlers

import (
	"net/http"
	"strings"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
)

// GenerationHandler serves the per-subject generation routes.
type GenerationHandler struct {
	*Responder
	study *services.StudyService
}

func NewGenerationHandler(study *services.StudyService, resp *Responder) *GenerationHandler {
	return &GenerationHandler{Responder: resp, study: study}
}

func (h *GenerationHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.study.AddFlashcards(r.Context(), req.UserID, req.SubjectID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if len(res.Created) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"created": []*models.Flashcard{},
			"message": emptyAIMessage,
		})
		return
	}

	duplicates := res.Duplicates
	if duplicates == nil {
		duplicates = []string{}
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"ok":                  true,
		"created":             res.Created,
		"duplicates_reported": duplicates,
	})
}

func (h *GenerationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	summary, err := h.study.CreateSummary(r.Context(), req.UserID, req.SubjectID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if summary == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "created": nil, "message": emptyAIMessage})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "created": summary, "topic": strings.TrimPrefix(summary.Name, services.SummaryNamePrefix)})
}

func (h *GenerationHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	test, err := h.study.CreateTest(r.Context(), req.UserID, req.SubjectID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if test == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "created": nil, "message": emptyAIMessage})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "created": test, "topic": strings.TrimPrefix(test.Name, services.TestNamePrefix)})
}
