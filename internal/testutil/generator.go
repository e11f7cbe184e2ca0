package testutil

import (
	"context"
	"sync"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
)

// FakeGenerator replays scripted responses in order. When the script runs
// out the last entry repeats until more are appended.
type FakeGenerator struct {
	mu        sync.Mutex
	responses []fakeResponse
	next      int
	Requests  []services.GenerateRequest
}

type fakeResponse struct {
	text string
	err  error
}

func NewFakeGenerator(texts ...string) *FakeGenerator {
	g := &FakeGenerator{}
	for _, t := range texts {
		g.Respond(t)
	}
	return g
}

func (g *FakeGenerator) Respond(text string) *FakeGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, fakeResponse{text: text})
	return g
}

func (g *FakeGenerator) Fail(err error) *FakeGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, fakeResponse{err: err})
	return g
}

func (g *FakeGenerator) Generate(ctx context.Context, req services.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	i := g.next
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	g.next++
	r := g.responses[i]
	return r.text, r.err
}

func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// LastRequest returns the most recent request, or the zero value if none.
func (g *FakeGenerator) LastRequest() services.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return services.GenerateRequest{}
	}
	return g.Requests[len(g.Requests)-1]
}

// RecordingPublisher keeps every published message.
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []models.WSMessage
}

func (p *RecordingPublisher) PublishUpdate(_ context.Context, _ int64, msg models.WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// Types lists the message types in publish order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Type)
	}
	return out
}
