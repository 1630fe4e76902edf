package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their config file key.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if key := fld.Tag.Get("conf"); key != "" {
			return key
		}
		return fld.Name
	})
	return v
}

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldError(verrs[0])
		}
		return err
	}

	if cfg.Producer.KeySource != KeySourceMnemonic && (cfg.Producer.Account != 0 || cfg.Producer.Index != 0) {
		return fmt.Errorf("producer.account and producer.index require producer.keysource=mnemonic")
	}
	if cfg.Producer.KeyFile != "" {
		if info, err := os.Stat(cfg.Producer.KeyFile); err == nil && info.IsDir() {
			return fmt.Errorf("producer.keyfile %q is a directory", cfg.Producer.KeyFile)
		}
	}

	return nil
}

// fieldError renders a validation failure using the config file key of the
// offending field.
func fieldError(fe validator.FieldError) error {
	key := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "required_with":
		return fmt.Errorf("%s is required when %s is set", key, siblingKey(key, fe.Param()))
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "lt":
		return fmt.Errorf("%s must be less than %s", key, fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", key, fe.Tag())
	}
}

// siblingKey names a field of the same section as key. Validator params
// refer to Go field names, which match the key suffix case-insensitively.
func siblingKey(key, field string) string {
	section, _, ok := strings.Cut(key, ".")
	if !ok {
		return strings.ToLower(field)
	}
	return section + "." + strings.ToLower(field)
}
