// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the spscbench run configuration.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML
// file, a .env file in the working directory, and SPSC_* environment
// variables (SPSC_COUNT, SPSC_MAX_JITTER, ...).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"code.hybscloud.com/ring/internal/fib"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPSC"

// Load builds a fib.Config. path may be empty, in which case no file is read.
// envFiles are loaded into the process environment first; missing files
// are skipped, existing variables are never overwritten.
func Load(path string, envFiles ...string) (fib.Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fib.Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	def := fib.DefaultConfig()
	v.SetDefault("count", def.Count)
	v.SetDefault("capacity", def.Capacity)
	v.SetDefault("strict", def.Strict)
	v.SetDefault("batch", def.Batch)
	v.SetDefault("max_jitter", def.MaxJitter)
	v.SetDefault("producer_cpu", def.ProducerCPU)
	v.SetDefault("consumer_cpu", def.ConsumerCPU)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("mode", string(def.Mode))
	v.SetDefault("metrics", def.Metrics)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fib.Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg fib.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fib.Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fib.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
