// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/eden-network/eden/builtin/staker"
)

const envPrefix = "EDEN"

// loadConfig starts from the defaults, applies the YAML file at path when
// given, then EDEN_* environment variables, and validates the result.
func loadConfig(path string) (staker.Config, error) {
	cfg := staker.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return staker.Config{}, errors.Wrap(err, "read config")
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return staker.Config{}, errors.Wrapf(err, "decode config %s", path)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return staker.Config{}, errors.Wrap(err, "environment config")
	}
	if err := cfg.Validate(); err != nil {
		return staker.Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
