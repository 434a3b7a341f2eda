package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

type Errors []FieldError

func (v Errors) Error() string {
	if len(v) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages flattens the errors for API envelopes.
func (v Errors) Messages() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Error())
	}
	return out
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "hhmm", validateClock)
		mustRegister(v, "cron", validateCron)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// Struct validates s against its `validate` tags and returns Errors on
// failure.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "datetime":
		if fe.Param() == "2006-01-02" {
			return "must be a date in YYYY-MM-DD format"
		}
		return "must match the layout " + fe.Param()
	case "unique":
		return "must not contain duplicates"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "cron":
		return "must be a valid five-field cron expression"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func validateClock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, m := (int(s[0]-'0'))*10+int(s[1]-'0'), (int(s[3]-'0'))*10+int(s[4]-'0')
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return h <= 23 && m <= 59
}

func validateCron(fl validator.FieldLevel) bool {
	return CronExpression(fl.Field().String()) == nil
}

// CronExpression reports whether expr is a standard five-field cron
// expression.
func CronExpression(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return errors.New("empty cron expression")
	}
	_, err := cron.ParseStandard(expr)
	return err
}
