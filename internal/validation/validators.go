// Package validation registers the custom binding rules used by request
// structs and turns validator errors into readable messages.
package validation

import (
	"campus_events/internal/domain" // Status values
	"errors"                        // Error inspection
	"fmt"                           // Message formatting
	"regexp"                        // Roll number pattern
	"strings"                       // Field name formatting
	"sync"                          // One-time registration

	"github.com/gin-gonic/gin/binding"       // Gin's validator engine
	"github.com/go-playground/validator/v10" // Validation library
)

var rollNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{4,20}$`)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register installs the custom rules on gin's validator. Safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		rules := map[string]validator.Func{
			"rollno":        rollNumber,
			"eventstatus":   eventStatus,
			"paymentstatus": paymentStatus,
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("register %s: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

func rollNumber(fl validator.FieldLevel) bool {
	return rollNumberPattern.MatchString(fl.Field().String())
}

func eventStatus(fl validator.FieldLevel) bool {
	return domain.ValidEventStatus(fl.Field().String())
}

func paymentStatus(fl validator.FieldLevel) bool {
	return domain.ValidPaymentStatus(fl.Field().String())
}

// Message renders a binding error for API clients.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "rollno":
		return field + " must be 4-20 letters or digits"
	case "eventstatus":
		return field + " must be pending, approved or rejected"
	case "paymentstatus":
		return field + " must be pending, completed or failed"
	}
	return field + " is invalid"
}

// toSnake converts a Go field name such as RollNumber into roll_number
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
