package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedSliceType    = errors.New("unsupported slice type")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

// readEnv populates dst with values from the environment variables named
// in its env tags. A tag option "overwrite" replaces values already set by
// defaults or the YAML file; without it only zero fields are filled.
func readEnv(dst any) error {
	structValue := reflect.ValueOf(dst)
	if structValue.Kind() != reflect.Ptr {
		return fmt.Errorf("%w, got %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structValue = structValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return fmt.Errorf("%w, got a pointer to %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structType := structValue.Type()

	for i := range structValue.NumField() {
		field := structValue.Field(i)
		fieldType := structType.Field(i)

		tag := fieldType.Tag.Get("env")
		if tag == "" {
			if field.Kind() == reflect.Struct {
				if err := readEnv(field.Addr().Interface()); err != nil {
					return err
				}
			}
			continue
		}

		parts := strings.Split(tag, ",")
		name := parts[0]
		overwrite := slices.Contains(parts[1:], "overwrite")

		value, exists := os.LookupEnv(name)
		if !exists || !field.CanSet() {
			continue
		}
		if !overwrite && !field.IsZero() {
			continue
		}

		if err := setFieldValue(field, fieldType, name, value); err != nil {
			return err
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, fieldType reflect.StructField, name, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("failed to parse duration for %s from env var %s (%s): %w",
					fieldType.Name, name, value, err)
			}
			field.SetInt(int64(d))
			return nil
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse int for %s from env var %s (%s): %w",
				fieldType.Name, name, value, err)
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("failed to parse float for %s from env var %s (%s): %w",
				fieldType.Name, name, value, err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to parse bool for %s from env var %s (%s): %w",
				fieldType.Name, name, value, err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w for field %s", errUnsupportedSliceType, fieldType.Name)
		}

		values := strings.Split(value, ",")
		trimmed := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				trimmed = append(trimmed, v)
			}
		}
		field.Set(reflect.ValueOf(trimmed))
	default:
		return fmt.Errorf("%w for field %s: %s", errUnsupportedFieldType, fieldType.Name, field.Kind())
	}

	return nil
}
