package model

import (
	"context"
	"time"
)

// User represents a platform account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Category is the subject tag of an exam.
type Category string

const (
	CategoryJava   Category = "Java"
	CategoryPython Category = "Python"
	CategoryCpp    Category = "C++"
)

// Categories lists the accepted exam categories.
var Categories = []Category{CategoryJava, CategoryPython, CategoryCpp}

// Language is the programming language a course teaches.
type Language string

const (
	LanguageC      Language = "C"
	LanguageCpp    Language = "C++"
	LanguageJava   Language = "Java"
	LanguagePython Language = "Python"
)

// Languages lists the accepted course languages.
var Languages = []Language{LanguageC, LanguageCpp, LanguageJava, LanguagePython}

// Option is one labeled choice of a multiple-choice question.
type Option struct {
	Key  string `json:"key" yaml:"key" validate:"required,max=8"`
	Text string `json:"text" yaml:"text" validate:"required"`
}

// ExamQuestion is a multiple-choice question attached to an exam.
// Options keep the order they were written in.
type ExamQuestion struct {
	ID            string   `json:"id"`
	ExamID        string   `json:"examId"`
	Name          string   `json:"name"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// OptionText returns the text of the option labeled key.
func (q ExamQuestion) OptionText(key string) (string, bool) {
	for _, o := range q.Options {
		if o.Key == key {
			return o.Text, true
		}
	}
	return "", false
}

// Exam is an exam definition. Duration is in whole seconds.
type Exam struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Duration     int            `json:"duration"`
	Category     Category       `json:"category"`
	TotalMarks   int            `json:"totalMarks"`
	PassingMarks int            `json:"passingMarks"`
	Questions    []ExamQuestion `json:"questions"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ResponseMap maps a 0-based question position to the selected option label.
type ResponseMap map[int]string

// Verdict is the outcome of a graded attempt.
type Verdict string

const (
	VerdictPass Verdict = "Pass"
	VerdictFail Verdict = "Fail"
)

// ExamResult partitions an exam's questions by outcome.
type ExamResult struct {
	CorrectAnswers []ExamQuestion `json:"correctAnswers"`
	WrongAnswers   []ExamQuestion `json:"wrongAnswers"`
	Verdict        Verdict        `json:"verdict" validate:"oneof=Pass Fail"`
}

// ExamReport is a recorded exam attempt.
type ExamReport struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ExamID    string     `json:"examId"`
	Result    ExamResult `json:"result"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ExamSummary is the exam part of a report listing.
type ExamSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	TotalMarks   int      `json:"totalMarks"`
	PassingMarks int      `json:"passingMarks"`
}

// UserSummary is the user part of a report listing.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ReportView is a report joined with its exam and user.
// Exam or User are nil when the referenced document is gone.
type ReportView struct {
	ExamReport
	Exam *ExamSummary `json:"exam"`
	User *UserSummary `json:"user,omitempty"`
}

// CourseSection is one titled block of course content.
type CourseSection struct {
	SectionTitle   string `json:"sectionTitle" yaml:"sectionTitle" validate:"required"`
	SectionContent string `json:"sectionContent" yaml:"sectionContent" validate:"required"`
}

// Course is a catalog entry teaching one language.
type Course struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Language    Language        `json:"language"`
	Description string          `json:"description"`
	Content     []CourseSection `json:"content"`
	Author      string          `json:"author"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Note is a personal study note.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Course    string    `json:"course"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Content   string    `json:"content"`
	Important string    `json:"important"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project is source code saved from the IDE.
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a reply on a community question.
type Comment struct {
	Description string    `json:"description"`
	Code        string    `json:"code,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ForumQuestion is a question posted to the community board.
type ForumQuestion struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	ErrorCode            string    `json:"errorCode,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	ProgrammingLanguages []string  `json:"programmingLanguages"`
	Comments             []Comment `json:"comments"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Feedback is a message left through the contact form.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Descrp    string    `json:"descrp"`
	CreatedAt time.Time `json:"createdAt"`
}
