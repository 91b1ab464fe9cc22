package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func unmarshalYAML(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides walks cfg's fields, overriding any whose struct tag
// names an environment variable that is set, matching graft's
// internal/config loader's reflection-based env-tag resolution.
func applyEnvOverrides(cfg *Config) {
	overrideFromEnv(reflect.ValueOf(cfg).Elem())
}

func overrideFromEnv(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			overrideFromEnv(field)
			continue
		}
		envName := t.Field(i).Tag.Get("env")
		if envName == "" {
			continue
		}
		value, set := os.LookupEnv(envName)
		if !set {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(value)
		case reflect.Bool:
			if b, err := strconv.ParseBool(value); err == nil {
				field.SetBool(b)
			}
		case reflect.Int, reflect.Int64:
			if field.Type() == reflect.TypeOf(time.Duration(0)) {
				if d, err := time.ParseDuration(value); err == nil {
					field.Set(reflect.ValueOf(d))
				}
				continue
			}
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				field.SetInt(n)
			}
		}
	}
}

func featureEnvOverrides(features map[string]bool) map[string]bool {
	const prefix = "NODEFLOW_FEATURES_"
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(parts[0], prefix))
		if b, err := strconv.ParseBool(parts[1]); err == nil {
			features[name] = b
		}
	}
	return features
}
