// Package grading scores multiple-choice exam attempts.
package grading

import "github.com/dulakshi2002/Edu-Code/internal/model"

// Grade compares each question's correct option with the response at the
// same position. Missing responses count as wrong. The verdict is Pass when
// the number of correct answers reaches passingMarks.
func Grade(questions []model.ExamQuestion, responses model.ResponseMap, passingMarks int) model.ExamResult {
	result := model.ExamResult{
		CorrectAnswers: make([]model.ExamQuestion, 0, len(questions)),
		WrongAnswers:   make([]model.ExamQuestion, 0),
	}

	for i, q := range questions {
		selected, answered := responses[i]
		if answered && selected == q.CorrectOption {
			result.CorrectAnswers = append(result.CorrectAnswers, q)
		} else {
			result.WrongAnswers = append(result.WrongAnswers, q)
		}
	}

	result.Verdict = model.VerdictFail
	if len(result.CorrectAnswers) >= passingMarks {
		result.Verdict = model.VerdictPass
	}
	return result
}
