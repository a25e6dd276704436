package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// validate is shared by every struct check in leapflow. Field names in
// errors come from the json tags so they match the YAML keys users write.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(fld.Tag.Get("koanf"), ",")
		}
		return name
	})
	_ = validate.RegisterValidation("filterop", func(fl validator.FieldLevel) bool {
		return core.FilterOperator(fl.Field().String()).Valid()
	})
}

// Struct validates s with its validate tags. The first failure is
// returned as a *core.ConfigurationError.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := verrs[0]
	return &core.ConfigurationError{Field: fieldPath(fe), Reason: reason(fe)}
}

// ValidateFlow checks a flow configuration with defaults applied.
// Tag validation runs first, then the structural checks every loader runs.
func ValidateFlow(cfg core.Configuration) error {
	cfg.ApplyDefaults()
	if err := Struct(cfg); err != nil {
		return err
	}
	for i, f := range cfg.Filters {
		if err := validate.Var(string(f.Operator), "filterop"); err != nil {
			return &core.ConfigurationError{Field: fmt.Sprintf("filters[%d].operator", i), Reason: fmt.Sprintf("unsupported operator %q", f.Operator)}
		}
	}
	return cfg.Check()
}

// ValidateTarget checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func ValidateTarget(t *TargetConfig) error {
	if t == nil {
		return nil
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if err := Struct(t); err != nil {
		return err
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// fieldPath drops the struct type name from the namespace:
// "Configuration.filters[0].field" becomes "filters[0].field".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s, got %v", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "filterop":
		return fmt.Sprintf("unsupported operator %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
