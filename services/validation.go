package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/utils"
)

const (
	salaryMaxDigits   = 10
	salaryDecimals    = 2
	maxQuestionLength = 255
	maxOptionLength   = 255
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	validate        = newValidator()
	salaryCeiling   = decimal.New(1, salaryMaxDigits-salaryDecimals)
)

// RegistrationInput is the sign-up form shared by the student and company flows.
type RegistrationInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"omitempty,max=254,email"`
	Password  string `json:"password" validate:"required,max=128"`
	Password2 string `json:"password2" validate:"required"`
}

// JobInput holds the posting fields and its question sub-forms.
type JobInput struct {
	Title        string           `json:"title" validate:"required,max=200"`
	Description  string           `json:"description" validate:"required"`
	Salary       *decimal.Decimal `json:"salary" validate:"required"`
	MinEducation string           `json:"min_education" validate:"required,max=100"`
	Questions    []QuestionInput  `json:"questions"`
}

// QuestionInput is one question sub-form. ID is set when editing an existing question.
type QuestionInput struct {
	ID          uint                `json:"id"`
	Text        string              `json:"text"`
	Type        models.QuestionType `json:"question_type"`
	Options     []string            `json:"options"`
	OptionsText string              `json:"options_text"`
	Delete      bool                `json:"delete"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct runs tag validation and converts failures into field messages keyed by json name.
func validateStruct(s interface{}) *ValidationError {
	out := &ValidationError{}
	err := validate.Struct(s)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("_", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), messageFor(fe))
	}
	return out
}

func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "email":
		return "enter a valid email address"
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	default:
		return "invalid value"
	}
}

// ValidateRegistration checks the sign-up form, including that both passwords match exactly.
func ValidateRegistration(in *RegistrationInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	verr := validateStruct(in)
	if in.Password != "" && in.Password2 != "" && in.Password != in.Password2 {
		verr.Add("password2", "passwords do not match")
	}
	return verr.Err()
}

// normalizeJob sanitizes the job fields in place and validates them. Question sub-forms are
// validated separately by normalizeQuestions.
func normalizeJob(in *JobInput) *ValidationError {
	in.Title = utils.SanitizeText(in.Title)
	in.Description = utils.SanitizeBody(in.Description)
	in.MinEducation = utils.SanitizeText(in.MinEducation)

	verr := validateStruct(in)
	if in.Salary != nil {
		if msg := checkSalary(*in.Salary); msg != "" {
			verr.Add("salary", msg)
		}
	}
	return verr
}

func checkSalary(d decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return "ensure this value is greater than or equal to 0"
	case !d.Equal(d.Round(salaryDecimals)):
		return fmt.Sprintf("ensure that there are no more than %d decimal places", salaryDecimals)
	case d.GreaterThanOrEqual(salaryCeiling):
		return fmt.Sprintf("ensure that there are no more than %d digits in total", salaryMaxDigits)
	}
	return ""
}
