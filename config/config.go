// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads and validates the pool genesis file.
package config

import (
	"math/big"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/pool"
)

// Duration wraps time.Duration with yaml string parsing ("30s", "2h").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrap(err, "parse duration")
	}
	*d = Duration(parsed)
	return nil
}

// Config is the pool genesis file.
type Config struct {
	Pool struct {
		// Self is the account under which the pool delegates.
		Self string `yaml:"self"`
		// Target is the initial delegation target.
		Target string `yaml:"target"`
		// ActivationThreshold is the total stake, in the smallest unit,
		// that triggers bonding.
		ActivationThreshold string `yaml:"activationThreshold"`
		// SoloUnbondingDelay is the unbonding delay enforced by the solo
		// staking service.
		SoloUnbondingDelay Duration `yaml:"soloUnbondingDelay"`
	} `yaml:"pool"`

	Admins  []string `yaml:"admins"`
	Members []string `yaml:"members"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes and validates config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if _, err := cfg.PoolConfig(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PoolConfig converts the parsed file into the pool's typed genesis
// parameters.
func (c *Config) PoolConfig() (pool.Config, error) {
	var out pool.Config

	self, err := collective.ParseAddress(c.Pool.Self)
	if err != nil {
		return out, errors.Wrap(err, "pool.self")
	}
	target, err := collective.ParseAddress(c.Pool.Target)
	if err != nil {
		return out, errors.Wrap(err, "pool.target")
	}
	threshold, ok := new(big.Int).SetString(c.Pool.ActivationThreshold, 10)
	if !ok || threshold.Sign() <= 0 {
		return out, errors.Errorf("pool.activationThreshold: invalid amount %q", c.Pool.ActivationThreshold)
	}

	out.Self = *self
	out.Target = *target
	out.ActivationThreshold = threshold

	for _, raw := range c.Admins {
		addr, err := collective.ParseAddress(raw)
		if err != nil {
			return out, errors.Wrapf(err, "admins: %q", raw)
		}
		out.Admins = append(out.Admins, *addr)
	}
	for _, raw := range c.Members {
		addr, err := collective.ParseAddress(raw)
		if err != nil {
			return out, errors.Wrapf(err, "members: %q", raw)
		}
		out.Members = append(out.Members, *addr)
	}
	return out, nil
}
