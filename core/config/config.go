package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"asset-merger/core/database"
	"asset-merger/core/logger"
	"asset-merger/core/reconcile"
	"asset-merger/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the configuration of one asset-merger invocation.
type Config struct {
	// Merge tunes indexing, planning and staged rewrites.
	Merge reconcile.Config `mapstructure:"merge"`
	Log   logger.Config    `mapstructure:"log"`
	// Journal records runs and their decisions in MySQL or SQLite.
	Journal database.Config `mapstructure:"journal"`
	// Storage uploads merge reports to an S3 compatible bucket.
	Storage storage.Config `mapstructure:"storage"`
}

// LoadConfig reads the merge settings from the environment. A .env file in dir
// is loaded first when present and overrides variables already set.
func LoadConfig(dir string) (*Config, error) {
	// a missing .env is the normal case outside a project checkout
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	registerKeys(v, reflect.TypeOf(Config{}), "")

	// MERGE_STAGED_SUFFIX -> merge.staged_suffix
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Merge.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// registerKeys sets the `default` tag of every mapstructure field as a viper
// default. AutomaticEnv only resolves keys viper already knows, so fields
// without a default are registered with an empty one.
func registerKeys(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			registerKeys(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
