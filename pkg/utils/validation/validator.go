package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate   = newValidator()
	phoneRE    = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigitRE = regexp.MustCompile(`\D`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// Error carries a message that is safe to return to the client.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Struct validates s and folds all missing required fields into one message.
// Other rule failures report the first offending field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	var missing []string
	for _, fe := range ves {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return &Error{Message: "Missing required fields: " + strings.Join(missing, ", ")}
	}
	return &Error{Message: message(ves[0])}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Invalid email format"
	case "phone":
		return "Invalid phone number. Must be 10 digits starting with 6-9"
	case "min":
		if fe.Field() == "password" {
			return fmt.Sprintf("Password must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("Invalid %s amount", fe.Field())
	case "oneof":
		return fmt.Sprintf("Invalid %s", fe.Field())
	case "datetime":
		return "Invalid date format. Use YYYY-MM-DD"
	}
	return fmt.Sprintf("Invalid %s", fe.Field())
}

// NormalizePhone strips everything but digits.
func NormalizePhone(raw string) string {
	return nonDigitRE.ReplaceAllString(raw, "")
}

func ValidPhone(raw string) bool {
	return phoneRE.MatchString(NormalizePhone(raw))
}

func ValidEmail(raw string) bool {
	return validate.Var(raw, "required,email") == nil
}
