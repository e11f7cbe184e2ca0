package testutil

// LinearAlgebraResponse is a fenced full-subject response with 12 valid
// questions and 3 flashcard candidates, the second of which has no back.
const LinearAlgebraResponse = "```json\n" + `{
  "summary": {
    "introduction": "Linear algebra studies vectors, vector spaces and linear maps.",
    "key_concepts": [
      {"title": "Vector", "explanation": "An element of a vector space."},
      {"title": "Matrix", "explanation": "A rectangular array representing a linear map."}
    ],
    "examples": ["Solving systems of linear equations"],
    "conclusion": "It underpins geometry, statistics and machine learning."
  },
  "questions": [
    {"question": "Linear algebra question 1?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "A"},
    {"question": "Linear algebra question 2?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "B"},
    {"question": "Linear algebra question 3?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "C"},
    {"question": "Linear algebra question 4?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "D"},
    {"question": "Linear algebra question 5?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "A"},
    {"question": "Linear algebra question 6?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "B"},
    {"question": "Linear algebra question 7?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "C"},
    {"question": "Linear algebra question 8?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "D"},
    {"question": "Linear algebra question 9?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "A"},
    {"question": "Linear algebra question 10?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "B"},
    {"question": "Linear algebra question 11?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "C"},
    {"question": "Linear algebra question 12?", "option_a": "Vector", "option_b": "Scalar", "option_c": "Matrix", "option_d": "Tensor", "correct_answer": "D"}
  ],
  "flashcards": [
    {"front": "What is a vector?", "back": "An element of a vector space."},
    {"front": "What is a matrix?", "back": ""},
    {"front": "What is a determinant?", "back": "A scalar computed from a square matrix."}
  ]
}` + "\n```"
