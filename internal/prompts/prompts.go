// Package prompts resolves the generation prompt for each content kind.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindSummary    Kind = "summary"
	KindFlashcards Kind = "flashcards"
	KindTestBank   Kind = "test"
	KindSubject    Kind = "subject"
)

// TopicToken must appear in every template.
const TopicToken = "{topic}"

// ExistingFrontsToken receives the newline-joined fronts a subject already has.
const ExistingFrontsToken = "{existing_fronts}"

var ErrKindNotFound = errors.New("prompt kind not found")

//go:embed templates/*.txt
var templateFS embed.FS

var templates = mustLoad()

func mustLoad() map[Kind]string {
	out := make(map[Kind]string)
	for _, k := range []Kind{KindSummary, KindFlashcards, KindTestBank, KindSubject} {
		b, err := templateFS.ReadFile("templates/" + string(k) + ".txt")
		if err != nil {
			panic(fmt.Sprintf("prompt template %q missing: %v", k, err))
		}
		if !strings.Contains(string(b), TopicToken) {
			panic(fmt.Sprintf("prompt template %q has no %s token", k, TopicToken))
		}
		out[k] = string(b)
	}
	return out
}

// Resolve substitutes the topic and any named placeholders into the template for kind.
// Placeholder keys are bare names ("existing_fronts"); tokens without a supplied value
// are left as they are. Substitution is a single pass, so values are never re-expanded.
func Resolve(kind Kind, topic string, placeholders map[string]string) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrKindNotFound, kind)
	}

	pairs := []string{TopicToken, topic}
	names := make([]string, 0, len(placeholders))
	for name := range placeholders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		token := "{" + name + "}"
		if token == TopicToken {
			continue
		}
		pairs = append(pairs, token, placeholders[name])
	}

	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// ParseKind maps a caller-supplied name onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := templates[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrKindNotFound, s)
	}
	return k, nil
}

func Kinds() []Kind {
	out := make([]Kind, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
