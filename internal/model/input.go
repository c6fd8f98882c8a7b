package model

import "time"

// ExamInput holds the writable fields of an exam.
type ExamInput struct {
	Name         string   `json:"name" yaml:"name" validate:"required,notblank,max=200"`
	Duration     int      `json:"duration" yaml:"duration" validate:"gte=0"`
	Category     Category `json:"category" yaml:"category" validate:"required,category"`
	TotalMarks   int      `json:"totalMarks" yaml:"totalMarks" validate:"gte=0"`
	PassingMarks int      `json:"passingMarks" yaml:"passingMarks" validate:"gte=0"`
}

// QuestionInput holds the writable fields of an exam question.
// CorrectOption must name one of the option keys.
type QuestionInput struct {
	Name          string   `json:"name" yaml:"name" validate:"required,notblank"`
	Options       []Option `json:"options" yaml:"options" validate:"required,min=2,unique=Key,dive"`
	CorrectOption string   `json:"correctOption" yaml:"correctOption" validate:"required"`
}

// AttemptInput is a finished attempt submitted by a client.
type AttemptInput struct {
	ExamID string     `json:"exam" validate:"required"`
	Result ExamResult `json:"result"`
}

type CourseInput struct {
	Title       string          `json:"title" yaml:"title" validate:"required,notblank"`
	Language    Language        `json:"language" yaml:"language" validate:"required,language"`
	Description string          `json:"description" yaml:"description" validate:"required"`
	Content     []CourseSection `json:"content" yaml:"content" validate:"required,min=1,dive"`
	Author      string          `json:"author" yaml:"author" validate:"required"`
}

type NoteInput struct {
	Course    string    `json:"course" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Title     string    `json:"title" validate:"required,notblank"`
	Language  string    `json:"language" validate:"required"`
	Content   string    `json:"content" validate:"required"`
	Important string    `json:"important"`
}

type ProjectInput struct {
	Name     string `json:"name" validate:"required,notblank"`
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required"`
}

type ForumQuestionInput struct {
	Name                 string   `json:"name" validate:"required,notblank"`
	Description          string   `json:"description" validate:"required"`
	ErrorCode            string   `json:"errorCode"`
	Notes                string   `json:"notes"`
	ProgrammingLanguages []string `json:"programmingLanguages" validate:"required,min=1,dive,required"`
}

type CommentInput struct {
	Description string `json:"description" validate:"required,notblank"`
	Code        string `json:"code"`
}

type FeedbackInput struct {
	Name   string `json:"name" validate:"required,notblank"`
	Email  string `json:"email" validate:"required,email"`
	Descrp string `json:"descrp" validate:"required"`
}

// SignupInput registers a new account.
type SignupInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SigninInput authenticates an existing account.
type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
