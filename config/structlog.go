package config

import (
	"fmt"
	"reflect"
	"strings"
)

type logMsg func(string, ...interface{})

var redactedFields = map[string]bool{
	"password": true,
	"secret":   true,
}

// logStructWithLogger writes one line per leaf field, keyed by its mapstructure path.
func logStructWithLogger(v reflect.Value, prefix string, logger logMsg) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		logger("%s: %s", strings.TrimSuffix(prefix, "."), valueString(v))
		return
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		name := fieldName(field)
		value := v.Field(i)
		switch value.Kind() {
		case reflect.Struct:
			logStructWithLogger(value, prefix+name+".", logger)
		case reflect.Map:
			logMapWithLogger(value, prefix+name, logger)
		default:
			if redactedFields[name] {
				logger("%s%s: <REDACTED>", prefix, name)
				continue
			}
			logger("%s%s: %s", prefix, name, valueString(value))
		}
	}
}

func logMapWithLogger(v reflect.Value, fullName string, logger logMsg) {
	keys := v.MapKeys()
	for _, key := range keys {
		value := v.MapIndex(key)
		keyName := fmt.Sprintf("%s[%v]", fullName, key.Interface())
		if value.Kind() == reflect.Struct {
			logStructWithLogger(value, keyName+".", logger)
			continue
		}
		logger("%s: %s", keyName, valueString(value))
	}
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("mapstructure"); tag != "" {
		return tag
	}
	return "((" + field.Name + "))"
}

// valueString formats unexported fields too, which Interface() cannot read.
func valueString(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v.Float())
	}
	if v.CanInterface() {
		return fmt.Sprintf("%v", v.Interface())
	}
	return fmt.Sprintf("<%s>", v.Kind())
}
