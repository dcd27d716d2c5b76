package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
// Register it with e.Validator = handler.NewRequestValidator().
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New()
    // report fields by their JSON names
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate checks the validate struct tags of i and flattens failures into
// one readable error such as "count must be at least 1".
func (rv *RequestValidator) Validate(i interface{}) error {
    err := rv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return err
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        msgs = append(msgs, fieldMessage(fe))
    }
    return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
    sized := fe.Kind() == reflect.Slice || fe.Kind() == reflect.String
    switch fe.Tag() {
    case "required":
        return fe.Field() + " is required"
    case "email":
        return fe.Field() + " must be a valid email"
    case "min":
        if sized {
            return fmt.Sprintf("%s must have length at least %s", fe.Field(), fe.Param())
        }
        return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
    case "max":
        if sized {
            return fmt.Sprintf("%s must have length at most %s", fe.Field(), fe.Param())
        }
        return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
    }
    return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
}
