package services

import (
	"encoding/json"
	"strings"

	"github.com/Estud-AI/EstudAI/internal/models"
)

const (
	FlashcardLimit        = 5
	QuestionLimit         = 10
	SubjectFlashcardLimit = 10
)

// Generator responses are asked for English keys; the legacy Portuguese
// keys are still accepted on every field.
var (
	flashcardListKeys = []string{"flashcards", "cards"}
	frontKeys         = []string{"front", "frente"}
	backKeys          = []string{"back", "verso"}
	levelKeys         = []string{"level", "nivel", "difficulty"}
	duplicateKeys     = []string{"duplicates", "duplicatas"}

	questionListKeys = []string{"questions", "simulado"}
	questionKeys     = []string{"question", "questao"}
	optionKeys       = [4][]string{
		{"option_a", "A", "a"},
		{"option_b", "B", "b"},
		{"option_c", "C", "c"},
		{"option_d", "D", "d"},
	}
	answerKeys = []string{"correct_answer", "resposta_correta", "answer"}

	summaryKeys = []string{"summary", "resumo"}
)

// LevelStrategy picks a flashcard level from the candidate's position in the
// generator's list and its raw level field.
type LevelStrategy func(position int, field string) models.Level

// LevelFromField trusts the candidate's own level field.
func LevelFromField(_ int, field string) models.Level {
	return models.ParseLevel(field)
}

// LevelFromPosition ignores the field: the first three are EASY, the next four MEDIUM, the rest HARD.
func LevelFromPosition(position int, _ string) models.Level {
	switch {
	case position < 3:
		return models.LevelEasy
	case position < 7:
		return models.LevelMedium
	default:
		return models.LevelHard
	}
}

type FlashcardSet struct {
	Cards      []*models.Flashcard
	Discarded  int
	Duplicates []string
	// Found is false when the document has no flashcard list at all.
	Found bool
}

// CoerceFlashcards keeps candidates with both a front and a back, in order,
// and stops scanning once limit cards are collected.
func CoerceFlashcards(doc any, level LevelStrategy, limit int) FlashcardSet {
	set := FlashcardSet{Cards: []*models.Flashcard{}, Duplicates: []string{}}

	obj, _ := doc.(map[string]any)
	duplicates, _ := listField(obj, duplicateKeys...)
	for _, d := range duplicates {
		if s := scalarText(d); s != "" {
			set.Duplicates = append(set.Duplicates, s)
		}
	}

	items, found := listField(obj, flashcardListKeys...)
	if obj == nil {
		items, found = doc.([]any)
	}
	set.Found = found
	for i, item := range items {
		if len(set.Cards) >= limit {
			break
		}
		c, ok := item.(map[string]any)
		if !ok {
			set.Discarded++
			continue
		}
		front, back := textField(c, frontKeys...), textField(c, backKeys...)
		if front == "" || back == "" {
			set.Discarded++
			continue
		}
		set.Cards = append(set.Cards, &models.Flashcard{
			Front: front,
			Back:  back,
			Level: level(i, textField(c, levelKeys...)),
		})
	}
	return set
}

type QuestionSet struct {
	Questions []*models.Question
	Discarded int
	// Defaulted counts kept questions whose answer letter was not A-D and became 1.
	Defaulted int
	// Found is false when the document has no question list at all.
	Found bool
}

// CoerceQuestions keeps complete multiple-choice candidates, up to limit.
func CoerceQuestions(doc any, limit int) QuestionSet {
	set := QuestionSet{Questions: []*models.Question{}}

	obj, _ := doc.(map[string]any)
	items, found := listField(obj, questionListKeys...)
	if obj == nil {
		items, found = doc.([]any)
	}
	set.Found = found
	for _, item := range items {
		if len(set.Questions) >= limit {
			break
		}
		c, ok := item.(map[string]any)
		if !ok {
			set.Discarded++
			continue
		}
		q := textField(c, questionKeys...)
		opts, okOpts := options(c)
		letter := textField(c, answerKeys...)
		if q == "" || !okOpts || letter == "" {
			set.Discarded++
			continue
		}
		answer, known := LetterToAnswer(letter)
		if !known {
			set.Defaulted++
		}
		set.Questions = append(set.Questions, &models.Question{
			Quest:         q,
			Option1:       opts[0],
			Option2:       opts[1],
			Option3:       opts[2],
			Option4:       opts[3],
			CorrectAnswer: answer,
		})
	}
	return set
}

// LetterToAnswer maps A-D (any case, surrounding space ignored) to 1-4.
// Anything else is 1 and reported as unknown.
func LetterToAnswer(letter string) (int, bool) {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return 1, true
	case "B":
		return 2, true
	case "C":
		return 3, true
	case "D":
		return 4, true
	default:
		return 1, false
	}
}

func options(c map[string]any) ([4]string, bool) {
	var out [4]string
	if list, ok := c["options"].([]any); ok && len(list) == 4 {
		for i, v := range list {
			out[i] = scalarText(v)
		}
	} else {
		for i, keys := range optionKeys {
			out[i] = textField(c, keys...)
		}
	}
	for _, o := range out {
		if o == "" {
			return out, false
		}
	}
	return out, true
}

// CoerceSummary returns the text body to store, or "" when there is nothing worth storing.
// When parsing failed the fence-stripped raw text is kept as one opaque section, and a
// bare JSON string is taken as the text. An object without a summary key, or any other
// document, is ErrUnexpectedShape.
func CoerceSummary(n Normalized) (string, error) {
	if !n.OK() {
		return strings.TrimSpace(StripFence(n.Err.Raw)), nil
	}
	switch doc := n.Doc.(type) {
	case string:
		return strings.TrimSpace(doc), nil
	case map[string]any:
		if v, ok := summaryField(doc); ok {
			return payloadText(v)
		}
	}
	return "", ErrUnexpectedShape
}

func summaryField(obj map[string]any) (any, bool) {
	for _, k := range summaryKeys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func payloadText(v any) (string, error) {
	switch p := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(p), nil
	case map[string]any:
		if len(p) == 0 {
			return "", nil
		}
	case []any:
		if len(p) == 0 {
			return "", nil
		}
	}
	return marshalPayload(v)
}

// SubjectContent is one full-subject response split into its three parts.
type SubjectContent struct {
	Summary    string
	Questions  QuestionSet
	Flashcards FlashcardSet
}

func (c SubjectContent) Empty() bool {
	return c.Summary == "" && len(c.Questions.Questions) == 0 && len(c.Flashcards.Cards) == 0
}

// CoerceSubject runs the summary, question and flashcard coercers over one document.
// Flashcard levels come from list position. A document that is not an object, or has
// none of the three sections, is ErrUnexpectedShape.
func CoerceSubject(n Normalized) (SubjectContent, error) {
	var out SubjectContent
	obj, ok := n.Object()
	if !ok {
		return out, ErrUnexpectedShape
	}
	raw, hasSummary := summaryField(obj)
	summary, err := payloadText(raw)
	if err != nil {
		return out, err
	}
	out.Summary = summary
	out.Questions = CoerceQuestions(obj, QuestionLimit)
	out.Flashcards = CoerceFlashcards(obj, LevelFromPosition, SubjectFlashcardLimit)
	if !hasSummary && !out.Questions.Found && !out.Flashcards.Found {
		return SubjectContent{}, ErrUnexpectedShape
	}
	return out, nil
}

// listField returns the first array value among keys and whether one was found.
func listField(obj map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

// textField returns the first non-empty value among keys, trimmed.
func textField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s := scalarText(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
