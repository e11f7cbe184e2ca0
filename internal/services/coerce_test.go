package services_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
	"github.com/Estud-AI/EstudAI/internal/testutil"
)

func doc(t *testing.T, raw string) any {
	t.Helper()
	n := services.Normalize(raw)
	require.True(t, n.OK(), "fixture must parse: %v", n.Err)
	return n.Doc
}

func cardsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"front":"F%d","back":"B%d","level":"easy"}`, i, i)
	}
	return `{"flashcards":[` + strings.Join(parts, ",") + `]}`
}

func TestCoerceFlashcards_CapsAtFiveInOrder(t *testing.T) {
	for _, n := range []int{5, 6, 12} {
		set := services.CoerceFlashcards(doc(t, cardsJSON(n)), services.LevelFromField, services.FlashcardLimit)
		require.Len(t, set.Cards, 5, "n=%d", n)
		for i, c := range set.Cards {
			assert.Equal(t, fmt.Sprintf("F%d", i), c.Front)
			assert.Equal(t, fmt.Sprintf("B%d", i), c.Back)
		}
		assert.Zero(t, set.Discarded)
	}
}

func TestCoerceFlashcards_MalformedDoNotCountTowardCap(t *testing.T) {
	raw := `{"flashcards":[
		{"front":"","back":"x"},
		{"front":"F0","back":"B0"},
		{"back":"orphan"},
		{"front":"F1","back":"   "},
		"not an object",
		{"front":"F2","back":"B2"},
		{"front":"F3","back":"B3"},
		{"front":"F4","back":"B4"},
		{"front":"F5","back":"B5"},
		{"front":"F6","back":"B6"},
		{"front":"","back":""}
	]}`
	set := services.CoerceFlashcards(doc(t, raw), services.LevelFromField, services.FlashcardLimit)

	fronts := make([]string, 0, len(set.Cards))
	for _, c := range set.Cards {
		fronts = append(fronts, c.Front)
	}
	assert.Equal(t, []string{"F0", "F2", "F3", "F4", "F5"}, fronts)
	// scanning stops at the cap, so the trailing empty card is never seen
	assert.Equal(t, 4, set.Discarded)
}

func TestCoerceFlashcards_LevelFromField(t *testing.T) {
	raw := `{"flashcards":[
		{"front":"a","back":"b","level":" hard "},
		{"front":"a","back":"b","level":"Easy"},
		{"front":"a","back":"b","level":"extreme"},
		{"front":"a","back":"b"},
		{"front":"a","back":"b","level":3}
	]}`
	set := services.CoerceFlashcards(doc(t, raw), services.LevelFromField, services.FlashcardLimit)
	require.Len(t, set.Cards, 5)

	got := []models.Level{}
	for _, c := range set.Cards {
		got = append(got, c.Level)
	}
	assert.Equal(t, []models.Level{models.LevelHard, models.LevelEasy, models.LevelMedium, models.LevelMedium, models.LevelMedium}, got)
}

func TestCoerceFlashcards_LegacyKeysAndDuplicates(t *testing.T) {
	raw := `{"flashcards":[{"frente":" O que é um vetor? ","verso":"Um elemento de um espaço vetorial","level":"EASY"}],
		"duplicatas":["Define a matrix", ""]}`
	set := services.CoerceFlashcards(doc(t, raw), services.LevelFromField, services.FlashcardLimit)
	require.Len(t, set.Cards, 1)
	assert.Equal(t, "O que é um vetor?", set.Cards[0].Front)
	assert.Equal(t, "Um elemento de um espaço vetorial", set.Cards[0].Back)
	assert.Equal(t, []string{"Define a matrix"}, set.Duplicates)
}

func TestCoerceFlashcards_ShapesWithoutCards(t *testing.T) {
	tests := []struct {
		raw   string
		found bool
	}{
		{`{}`, false},
		{`{"error":"quota"}`, false},
		{`{"flashcards":"none"}`, false},
		{`"text"`, false},
		{`42`, false},
		{`{"flashcards":[]}`, true},
		{`{"cards":[{"front":""}]}`, true},
	}
	for _, tt := range tests {
		set := services.CoerceFlashcards(doc(t, tt.raw), services.LevelFromField, services.FlashcardLimit)
		assert.Empty(t, set.Cards, tt.raw)
		assert.Equal(t, tt.found, set.Found, tt.raw)
		assert.NotNil(t, set.Cards)
		assert.NotNil(t, set.Duplicates)
	}

	set := services.CoerceFlashcards(doc(t, `[{"front":"a","back":"b"}]`), services.LevelFromField, services.FlashcardLimit)
	assert.Len(t, set.Cards, 1)
	assert.True(t, set.Found)
}

func TestLevelFromPosition(t *testing.T) {
	want := []models.Level{
		models.LevelEasy, models.LevelEasy, models.LevelEasy,
		models.LevelMedium, models.LevelMedium, models.LevelMedium, models.LevelMedium,
		models.LevelHard, models.LevelHard, models.LevelHard, models.LevelHard,
	}
	for i, w := range want {
		assert.Equal(t, w, services.LevelFromPosition(i, "EASY"), "position %d", i)
	}
}

func TestLetterToAnswer(t *testing.T) {
	for letter, want := range map[string]int{
		"A": 1, "B": 2, "C": 3, "D": 4,
		"a": 1, "b": 2, "c": 3, "d": 4,
		" a ": 1, "\tB\n": 2, "  c": 3, "d  ": 4,
	} {
		got, ok := services.LetterToAnswer(letter)
		assert.True(t, ok, letter)
		assert.Equal(t, want, got, "letter %q", letter)
	}
	for _, letter := range []string{"E", "", "AB", "1", "4", "option b", "Ä"} {
		got, ok := services.LetterToAnswer(letter)
		assert.False(t, ok, letter)
		assert.Equal(t, 1, got, "letter %q", letter)
	}
}

func questionJSON(i int, answer string) string {
	return fmt.Sprintf(`{"question":"Q%d","option_a":"a","option_b":"b","option_c":"c","option_d":"d","correct_answer":%q}`, i, answer)
}

func TestCoerceQuestions(t *testing.T) {
	parts := []string{
		questionJSON(0, "b"),
		`{"question":"missing option","option_a":"a","option_b":"b","option_c":"c","correct_answer":"A"}`,
		`{"question":"missing answer","option_a":"a","option_b":"b","option_c":"c","option_d":"d"}`,
		`{"option_a":"a","option_b":"b","option_c":"c","option_d":"d","correct_answer":"A"}`,
		questionJSON(1, "Z"),
	}
	for i := 2; i < 14; i++ {
		parts = append(parts, questionJSON(i, "D"))
	}
	set := services.CoerceQuestions(doc(t, `{"questions":[`+strings.Join(parts, ",")+`]}`), services.QuestionLimit)

	require.Len(t, set.Questions, 10)
	assert.Equal(t, 3, set.Discarded)
	assert.Equal(t, 1, set.Defaulted)
	assert.Equal(t, "Q0", set.Questions[0].Quest)
	assert.Equal(t, 2, set.Questions[0].CorrectAnswer)
	assert.Equal(t, 1, set.Questions[1].CorrectAnswer)
	assert.Equal(t, "Q9", set.Questions[9].Quest)
	for _, q := range set.Questions {
		assert.Contains(t, []int{1, 2, 3, 4}, q.CorrectAnswer)
		assert.Equal(t, []string{"a", "b", "c", "d"}, []string{q.Option1, q.Option2, q.Option3, q.Option4})
	}
}

func TestCoerceQuestions_LegacyAndOptionList(t *testing.T) {
	raw := `{"simulado":[
		{"questao":"Quanto é 2+2?","A":"3","B":"4","C":"5","D":"6","resposta_correta":"b"},
		{"question":"Pick","options":["w","x","y","z"],"correct_answer":"C"},
		{"question":"Bad list","options":["w","x","y"],"correct_answer":"C"},
		{"question":"Numeric","option_a":1,"option_b":2,"option_c":3,"option_d":4,"correct_answer":"d"}
	]}`
	set := services.CoerceQuestions(doc(t, raw), services.QuestionLimit)
	require.Len(t, set.Questions, 3)
	assert.Equal(t, 1, set.Discarded)

	assert.Equal(t, "Quanto é 2+2?", set.Questions[0].Quest)
	assert.Equal(t, "4", set.Questions[0].Option2)
	assert.Equal(t, 2, set.Questions[0].CorrectAnswer)

	assert.Equal(t, "y", set.Questions[1].Option3)
	assert.Equal(t, 3, set.Questions[1].CorrectAnswer)

	assert.Equal(t, "4", set.Questions[2].Option4)
	assert.Equal(t, 4, set.Questions[2].CorrectAnswer)
}

func TestCoerceSummary(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"nested object", `{"summary":{"introduction":"Intro","conclusion":"End"}}`, "{\n  \"conclusion\": \"End\",\n  \"introduction\": \"Intro\"\n}"},
		{"legacy key", `{"resumo":{"a":"<b>x</b>"}}`, "{\n  \"a\": \"<b>x</b>\"\n}"},
		{"empty object", `{"summary":{}}`, ""},
		{"null", `{"summary":null}`, ""},
		{"string payload", `{"summary":"  Plain summary.  "}`, "Plain summary."},
		{"top-level string", `"Only text"`, "Only text"},
		{"unparseable falls back to raw", "```\nLinear algebra studies vectors.\n```", "Linear algebra studies vectors."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := services.CoerceSummary(services.Normalize(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceSummary_UnexpectedShape(t *testing.T) {
	for _, raw := range []string{`{"error":"quota"}`, `{"cards_list":[{"front":"a"}]}`, `{}`, `42`, `[1,2]`, `true`} {
		got, err := services.CoerceSummary(services.Normalize(raw))
		assert.ErrorIs(t, err, services.ErrUnexpectedShape, raw)
		assert.Empty(t, got, raw)
	}
}

func TestCoerceQuestions_Found(t *testing.T) {
	for raw, found := range map[string]bool{
		`{"questions":[]}`:     true,
		`{"simulado":[{}]}`:    true,
		`[]`:                   true,
		`{"error":"quota"}`:    false,
		`{"questions":"soon"}`: false,
		`"just a string"`:      false,
		`42`:                   false,
	} {
		set := services.CoerceQuestions(doc(t, raw), services.QuestionLimit)
		assert.Equal(t, found, set.Found, raw)
		assert.Empty(t, set.Questions, raw)
	}
}

func TestCoerceSubject_LinearAlgebra(t *testing.T) {
	content, err := services.CoerceSubject(services.Normalize(testutil.LinearAlgebraResponse))
	require.NoError(t, err)

	assert.NotEmpty(t, content.Summary)
	assert.Len(t, content.Questions.Questions, 10)
	assert.Zero(t, content.Questions.Discarded)
	require.Len(t, content.Flashcards.Cards, 2)
	assert.Equal(t, 1, content.Flashcards.Discarded)
	assert.False(t, content.Empty())

	// position counts raw list slots, so the card after the malformed one is still EASY
	assert.Equal(t, models.LevelEasy, content.Flashcards.Cards[0].Level)
	assert.Equal(t, models.LevelEasy, content.Flashcards.Cards[1].Level)
}

func TestCoerceSubject_PositionLevelsIgnoreField(t *testing.T) {
	parts := make([]string, 9)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"frente":"F%d","verso":"B%d","level":"EASY"}`, i, i)
	}
	content, err := services.CoerceSubject(services.Normalize(`{"flashcards":[` + strings.Join(parts, ",") + `]}`))
	require.NoError(t, err)
	require.Len(t, content.Flashcards.Cards, 9)
	assert.Equal(t, models.LevelMedium, content.Flashcards.Cards[3].Level)
	assert.Equal(t, models.LevelHard, content.Flashcards.Cards[8].Level)
	assert.Empty(t, content.Summary)
}

func TestCoerceSubject_NonObject(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"text"`, `{"error":"quota"}`, `{"questions":"none"}`} {
		_, err := services.CoerceSubject(services.Normalize(raw))
		assert.ErrorIs(t, err, services.ErrUnexpectedShape, raw)
	}

	content, err := services.CoerceSubject(services.Normalize(`{"summary":{}}`))
	require.NoError(t, err)
	assert.True(t, content.Empty())

	content, err = services.CoerceSubject(services.Normalize(`{"flashcards":[]}`))
	require.NoError(t, err)
	assert.True(t, content.Empty())
}
