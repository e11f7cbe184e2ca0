package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/prompts"
	"github.com/Estud-AI/EstudAI/internal/services"
)

const askSystemPrompt = "You are a helpful assistant."

// AIHandler passes a raw prompt straight to the model.
type AIHandler struct {
	*Responder
	gen services.Generator
}

func NewAIHandler(gen services.Generator, resp *Responder) *AIHandler {
	return &AIHandler{Responder: resp, gen: gen}
}

func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.handleServiceError(w, r, &services.ValidationError{Fields: map[string]string{"prompt": "is required"}})
		return
	}

	system := req.System
	if strings.TrimSpace(system) == "" {
		system = askSystemPrompt
	}
	text, err := h.gen.Generate(r.Context(), services.GenerateRequest{
		Prompt:      req.Prompt,
		System:      system,
		Model:       req.Model,
		Temperature: req.Temperature,
		Label:       "ask",
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "text": text})
}

// Prompts lists the prompt kinds that can be previewed.
func (h *AIHandler) Prompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "kinds": prompts.Kinds()})
}

// Prompt renders the prompt a generation for ?topic= would send.
func (h *AIHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	kind, err := prompts.ParseKind(chi.URLParam(r, "kind"))
	if errors.Is(err, prompts.ErrKindNotFound) {
		h.handleServiceError(w, r, &services.NotFoundError{Message: "prompt kind not found"})
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		h.handleServiceError(w, r, &services.ValidationError{Fields: map[string]string{"topic": "is required"}})
		return
	}
	text, err := prompts.Resolve(kind, topic, nil)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "kind": kind, "prompt": text})
}
