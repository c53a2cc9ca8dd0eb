package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/llsilvas/user-gateway/internal/dto"
)

// Validator checks inbound payloads. It satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the payload rules. Organization fields become
// required when the requested role matches organizerRole, ignoring case.
func NewValidator(organizerRole string) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(organizerFields(organizerRole), dto.CreateUserRequest{})
	return &Validator{validate: v}
}

// Validate runs struct validation.
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

func organizerFields(role string) validator.StructLevelFunc {
	return func(sl validator.StructLevel) {
		req, ok := sl.Current().Interface().(dto.CreateUserRequest)
		if !ok || role == "" || !strings.EqualFold(strings.TrimSpace(req.Role), role) {
			return
		}
		required := map[string]string{
			"organizationName": req.OrganizationName,
			"contactEmail":     req.ContactEmail,
			"contactPhone":     req.ContactPhone,
			"documentNumber":   req.DocumentNumber,
		}
		for name, value := range required {
			if strings.TrimSpace(value) == "" {
				sl.ReportError(value, name, name, "required_for_organizer", "")
			}
		}
	}
}

// validationMessages flattens validator errors into readable strings.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return out
}
