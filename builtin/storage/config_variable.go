// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/holiman/uint256"

	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
)

var logger = log.WithContext("pkg", "storage")

// ConfigVariable is a static default that governance may override through state.
// Any stored value, zero included, overrides the default until reset.
type ConfigVariable struct {
	slot         eden.Bytes32
	name         string
	defaultValue uint256.Int
}

func NewConfigVariable(name string, defaultValue *uint256.Int) *ConfigVariable {
	c := &ConfigVariable{
		slot: Slot("config-" + name),
		name: name,
	}
	c.defaultValue.Set(defaultValue)
	return c
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() eden.Bytes32 {
	return c.slot
}

func (c *ConfigVariable) override(ctx *Context) *Value[*uint256.Int] {
	return NewValue[*uint256.Int](ctx, c.slot)
}

// Get returns the override stored in ctx, or the default.
func (c *ConfigVariable) Get(ctx *Context) (*uint256.Int, error) {
	override, err := c.override(ctx).Get()
	if err != nil {
		logger.Warn("failed to read config value", "name", c.name, "err", err)
		return nil, err
	}
	if override != nil {
		return override, nil
	}
	return new(uint256.Int).Set(&c.defaultValue), nil
}

// Overridden reports whether ctx holds an override.
func (c *ConfigVariable) Overridden(ctx *Context) (bool, error) {
	override, err := c.override(ctx).Get()
	return override != nil, err
}

// Override stores a new value.
func (c *ConfigVariable) Override(ctx *Context, value *uint256.Int) error {
	if err := c.override(ctx).Set(new(uint256.Int).Set(value)); err != nil {
		return err
	}
	logger.Debug("config value overridden", "name", c.name, "value", value)
	return nil
}

// Reset drops the override.
func (c *ConfigVariable) Reset(ctx *Context) {
	c.override(ctx).Clear()
	logger.Debug("config value reset", "name", c.name)
}
