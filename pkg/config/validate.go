package config

import (
	"fmt"
	"reflect"
)

// ValidateStruct checks exported fields tagged `validate:"required"` and
// returns one error per missing value. Pointer fields must be non-nil,
// everything else must be non-zero.
func ValidateStruct(s interface{}) []error {
	var errs []error

	v := reflect.Indirect(reflect.ValueOf(s))
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("validate") != "required" {
			continue
		}

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Ptr:
			if fv.IsNil() {
				errs = append(errs, fmt.Errorf("%s is required", field.Name))
			}
		default:
			if fv.IsZero() {
				errs = append(errs, fmt.Errorf("%s is required", field.Name))
			}
		}
	}

	return errs
}
