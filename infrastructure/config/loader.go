// Package config provides the configuration loader shared by the gateway and
// the entity services. Values come from an optional YAML file and are then
// overridden by environment variables named in `env` struct tags.
//
// Before overrides are applied, .env files are loaded in priority order:
//
//  1. ENV_FILE (if set, only this file is loaded)
//  2. .env.local
//  3. .env
//
// Example:
//
//	type GatewayConfig struct {
//	    Port      int    `yaml:"port"       env:"PORT"`
//	    JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
//	}
//
//	cfg, err := config.Load[GatewayConfig]("config.yml")
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	// godotenv never overrides variables that are already set, so .env.local
	// must be loaded first to win over .env.
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads an optional YAML config file and applies environment variable
// overrides. A missing file is not an error: containers are usually
// configured through the environment alone.
func Load[T any](path string) (*T, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := new(T)
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults is Load followed by setDefaults. Environment overrides are
// applied again afterwards so the environment always wins.
func LoadWithDefaults[T any](path string, setDefaults func(*T)) (*T, error) {
	cfg, err := Load[T](path)
	if err != nil {
		return nil, err
	}
	if setDefaults == nil {
		return cfg, nil
	}

	setDefaults(cfg)
	if err = ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(path string, out any) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

// ApplyEnvOverrides sets every field tagged `env:"NAME"` from the environment
// when NAME is non-empty, descending into nested structs. Values that do not
// parse for the field's type are reported together and leave the field as is.
func ApplyEnvOverrides(cfg any) error {
	v := reflect.Indirect(reflect.ValueOf(cfg))
	var errs []error
	overrideStruct(v, &errs)
	return errors.Join(errs...)
}

func overrideStruct(v reflect.Value, errs *[]error) {
	if v.Kind() != reflect.Struct {
		return
	}

	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct:
			overrideStruct(field, errs)
			continue
		case field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.Struct:
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			overrideStruct(field.Elem(), errs)
			continue
		}

		name := v.Type().Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		if err := assign(field, raw); err != nil {
			*errs = append(*errs, fmt.Errorf("env %s=%q: %w", name, raw, err))
		}
	}
}

func assign(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		field.SetBool(ParseBool(raw))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		var items []string
		for item := range strings.SplitSeq(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// ParseBool accepts "true", "1" and "yes" in any case. Everything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// GetConfigPath returns CONFIG_PATH when set, otherwise defaultPath.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}
