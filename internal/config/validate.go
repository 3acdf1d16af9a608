package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/go-playground/validator/v10"
)

var (
	cronExpressionPattern = regexp.MustCompile(`^cron\(\s*\S+(\s+\S+){5}\s*\)$`)
	rateExpressionPattern = regexp.MustCompile(`^rate\(\s*[1-9][0-9]*\s+(minute|minutes|hour|hours|day|days)\s*\)$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})
	mustRegister(v, "awsarn", func(fl validator.FieldLevel) bool {
		return arn.IsARN(fl.Field().String())
	})
	mustRegister(v, "schedule", func(fl validator.FieldLevel) bool {
		return IsScheduleExpression(fl.Field().String())
	})
	mustRegister(v, "cpuarch", func(fl validator.FieldLevel) bool {
		return IsCPUArchitecture(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// IsScheduleExpression reports whether value is an EventBridge cron(...) or rate(...) expression.
func IsScheduleExpression(value string) bool {
	trimmed := strings.TrimSpace(value)
	return cronExpressionPattern.MatchString(trimmed) || rateExpressionPattern.MatchString(trimmed)
}

// IsCPUArchitecture reports whether value is a CPU architecture the task runtime platform accepts.
func IsCPUArchitecture(value string) bool {
	return slices.Contains(ecstypes.CPUArchitecture("").Values(), ecstypes.CPUArchitecture(value))
}

func cpuArchitectures() string {
	values := ecstypes.CPUArchitecture("").Values()
	names := make([]string, 0, len(values))
	for _, value := range values {
		names = append(names, string(value))
	}
	return strings.Join(names, ", ")
}

func validateStruct(kind string, value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", kind, err)
	}
	out := ValidationError{Kind: kind}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:  fieldPath(fe.Namespace()),
			Reason: fieldReason(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "awsarn":
		return fmt.Sprintf("must be an ARN, got %q", fe.Value())
	case "schedule":
		return fmt.Sprintf("must be a cron(...) or rate(...) expression, got %q", fe.Value())
	case "cpuarch":
		return fmt.Sprintf("must be one of %s, got %q", cpuArchitectures(), fe.Value())
	case "unique":
		return "must not contain duplicates"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
