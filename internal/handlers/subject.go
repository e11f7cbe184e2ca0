package handlers

import (
	"net/http"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
)

type SubjectHandler struct {
	*Responder
	study *services.StudyService
}

func NewSubjectHandler(study *services.StudyService, resp *Responder) *SubjectHandler {
	return &SubjectHandler{Responder: resp, study: study}
}

type subjectCreated struct {
	SubjectID           int64  `json:"subject_id"`
	SubjectName         string `json:"subject_name"`
	SummaryID           *int64 `json:"summary_id"`
	TestID              int64  `json:"test_id"`
	TotalQuestions      int    `json:"total_questions"`
	TotalFlashcards     int    `json:"total_flashcards"`
	DiscardedQuestions  int    `json:"discarded_questions"`
	DiscardedFlashcards int    `json:"discarded_flashcards"`
}

// Create generates a whole subject from a topic.
func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	bundle, err := h.study.CreateFullSubject(r.Context(), req.Topic, req.UserID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if bundle == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"message": emptyAIMessage,
			"data":    nil,
		})
		return
	}

	data := subjectCreated{
		SubjectID:           bundle.Subject.ID,
		SubjectName:         bundle.Subject.Name,
		TestID:              bundle.Test.ID,
		TotalQuestions:      len(bundle.Test.Questions),
		TotalFlashcards:     len(bundle.Flashcards),
		DiscardedQuestions:  bundle.DiscardedQuestions,
		DiscardedFlashcards: bundle.DiscardedFlashcards,
	}
	if bundle.Summary != nil {
		data.SummaryID = &bundle.Summary.ID
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"ok":      true,
		"message": "Subject created successfully",
		"data":    data,
	})
}

func (h *SubjectHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	subjects, err := h.study.ListSubjects(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if subjects == nil {
		subjects = []*models.Subject{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "subjects": subjects})
}

func (h *SubjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	subject, err := h.study.GetSubject(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "subject": subject})
}

// Delete removes the subject and everything generated for it.
func (h *SubjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.study.DeleteSubject(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "Subject deleted"})
}
