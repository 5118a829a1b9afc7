// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the CLI's YAML-loadable configuration. The reasoning
// core never parses YAML itself; this is assembled here and handed to
// kb.New as functional options.
type Options struct {
	// LogLevel selects zap's level: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

func defaultOptions() Options {
	return Options{LogLevel: "warn"}
}

// loadOptions reads path if it exists, returning defaults otherwise.
func loadOptions(path string) (Options, error) {
	opts := defaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config %s: %w", path, err)
	}
	return opts, nil
}
