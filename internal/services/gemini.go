package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Estud-AI/EstudAI/internal/config"
	"github.com/Estud-AI/EstudAI/internal/logger"
)

type GeminiService struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	log         *logger.Logger
	rateChan    chan struct{} // Token bucket
}

func NewGeminiService(ctx context.Context, cfg *config.Config, log *logger.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	s := newGeminiService(cfg.GeminiConcurrentReqs, log)
	s.client = client
	s.model = cfg.GeminiModel
	s.temperature = cfg.GeminiTemperature
	s.timeout = cfg.GeminiTimeout
	return s, nil
}

func newGeminiService(concurrentReqs int, log *logger.Logger) *GeminiService {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}
	return &GeminiService{
		temperature: DefaultTemperature,
		log:         log.With("component", "gemini"),
		rateChan:    rateChan,
	}
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Generate makes exactly one provider call. Failures are not retried.
func (s *GeminiService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", fmt.Errorf("%w: waiting for rate slot: %w", ErrGenerationFailed, err)
	}
	defer s.releaseRate()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.model
	}
	model := s.client.GenerativeModel(modelName)
	model.SetTemperature(s.resolveTemperature(req.Temperature))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	latency := time.Since(start)
	if err != nil {
		s.log.Error("gemini call failed", "label", req.Label, "model", modelName, "latency_ms", latency.Milliseconds(), "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s: %w", ErrGenerationFailed, s.timeout, err)
		}
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	for _, i := range earlyStops(resp) {
		s.log.Warn("gemini stopped early", "label", req.Label, "candidate", i, "finish_reason", resp.Candidates[i].FinishReason.String())
	}

	text := extractText(resp)
	s.log.Info("gemini call",
		"label", req.Label,
		"model", modelName,
		"latency_ms", latency.Milliseconds(),
		"bytes", len(text),
	)
	return text, nil
}

func (s *GeminiService) resolveTemperature(t *float32) float32 {
	if t != nil {
		return *t
	}
	return s.temperature
}

// earlyStops returns the indexes of candidates that finished for a reason other than a normal stop.
func earlyStops(resp *genai.GenerateContentResponse) []int {
	if resp == nil {
		return nil
	}
	var idx []int
	for i, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			idx = append(idx, i)
		}
	}
	return idx
}

// extractText joins the text parts of the first candidate that has any.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		if text.Len() > 0 {
			return text.String()
		}
	}
	return ""
}
