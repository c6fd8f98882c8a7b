// Package validate checks request and seed payloads with go-playground/validator
// and reports failures as per-field messages.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom validation tags & texts
const (
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	categoryTag  = "category"
	categoryText = "{0} must be one of Java, Python, C++"

	languageTag  = "language"
	languageText = "{0} must be one of C, C++, Java, Python"

	passingTag  = "ltetotal"
	passingText = "{0} cannot exceed totalMarks"

	correctOptionTag  = "correctoption"
	correctOptionText = "{0} must be one of the option keys"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	_ = validate.RegisterValidation(languageTag, languageValidation)
	validate.RegisterStructValidation(examStructValidation, model.ExamInput{})
	validate.RegisterStructValidation(questionStructValidation, model.QuestionInput{})

	registerTranslation(notBlankTag, notBlankText)
	registerTranslation(categoryTag, categoryText)
	registerTranslation(languageTag, languageText)
	registerTranslation(passingTag, passingText)
	registerTranslation(correctOptionTag, correctOptionText)
}

func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldError is a failed check on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a payload fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field builds an Error for a single field.
func Field(field, message string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Message: message}}}
}

// Struct validates s. Validation failures come back as *Error; anything else
// (such as a non-struct argument) is returned unchanged.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: fe.Translate(translator)})
	}
	return out
}

// fieldPath drops the root struct name from the namespace, keeping nested
// paths such as "options[1].key".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func categoryValidation(fl validator.FieldLevel) bool {
	c := model.Category(fl.Field().String())
	for _, known := range model.Categories {
		if c == known {
			return true
		}
	}
	return false
}

func languageValidation(fl validator.FieldLevel) bool {
	l := model.Language(fl.Field().String())
	for _, known := range model.Languages {
		if l == known {
			return true
		}
	}
	return false
}

// examStructValidation checks that the pass mark is reachable.
func examStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(model.ExamInput)
	if !ok {
		return
	}
	if in.PassingMarks > in.TotalMarks {
		sl.ReportError(in.PassingMarks, "passingMarks", "PassingMarks", passingTag, "")
	}
}

// questionStructValidation checks that the correct option is one of the offered keys.
func questionStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(model.QuestionInput)
	if !ok || in.CorrectOption == "" {
		return
	}
	for _, o := range in.Options {
		if o.Key == in.CorrectOption {
			return
		}
	}
	sl.ReportError(in.CorrectOption, "correctOption", "CorrectOption", correctOptionTag, "")
}
