// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/eden"
)

// Config holds the static staking parameters. Lengths are in blocks for
// rounds and in rounds for eras.
type Config struct {
	UnbondingDelay            uint32       `yaml:"unbonding_delay" envconfig:"UNBONDING_DELAY"`
	RoundLength               uint32       `yaml:"round_length" envconfig:"ROUND_LENGTH"`
	EraLength                 uint32       `yaml:"era_length" envconfig:"ERA_LENGTH"`
	MaxValidators             int          `yaml:"max_validators" envconfig:"MAX_VALIDATORS"`
	MinValidators             int          `yaml:"min_validators" envconfig:"MIN_VALIDATORS"`
	MaxNominatorsPerValidator int          `yaml:"max_nominators_per_validator" envconfig:"MAX_NOMINATORS_PER_VALIDATOR"`
	Commission                ratio.Ratio  `yaml:"commission" envconfig:"COMMISSION"`
	MaxUnlockChunks           int          `yaml:"max_unlock_chunks" envconfig:"MAX_UNLOCK_CHUNKS"`
	EraRewardPot              uint256.Int  `yaml:"era_reward_pot" envconfig:"ERA_REWARD_POT"`
	DegradedThreshold         uint32       `yaml:"degraded_threshold" envconfig:"DEGRADED_THRESHOLD"`
	SnapshotRetention         uint32       `yaml:"snapshot_retention" envconfig:"SNAPSHOT_RETENTION"`
	SnapshotBudget            int          `yaml:"snapshot_budget" envconfig:"SNAPSHOT_BUDGET"`
	PayoutBudget              int          `yaml:"payout_budget" envconfig:"PAYOUT_BUDGET"`
	TreasuryAccount           eden.Address `yaml:"treasury_account" envconfig:"TREASURY_ACCOUNT"`
}

// DefaultConfig returns a configuration with one hour rounds and six hour eras.
func DefaultConfig() Config {
	cfg := Config{
		UnbondingDelay:            eden.DayBlocks * 7,
		RoundLength:               eden.HourBlocks,
		EraLength:                 6,
		MaxValidators:             100,
		MinValidators:             4,
		MaxNominatorsPerValidator: 256,
		Commission:                ratio.FromPercent(10),
		MaxUnlockChunks:           32,
		DegradedThreshold:         3,
		SnapshotRetention:         6 * 28,
		SnapshotBudget:            64,
		PayoutBudget:              256,
		TreasuryAccount:           eden.BytesToAddress([]byte("treasury")),
	}
	cfg.EraRewardPot.SetUint64(1_000_000)
	return cfg
}

// Validate rejects inconsistent configurations.
func (c *Config) Validate() error {
	switch {
	case c.RoundLength == 0:
		return errors.New("round_length must be positive")
	case c.EraLength == 0:
		return errors.New("era_length must be positive")
	case uint64(c.RoundLength)*uint64(c.EraLength) > 1<<31:
		return errors.New("era spans too many blocks")
	case c.MinValidators < 1:
		return errors.New("min_validators must be positive")
	case c.MaxValidators < c.MinValidators:
		return errors.Errorf("max_validators %d below min_validators %d", c.MaxValidators, c.MinValidators)
	case c.MaxNominatorsPerValidator < 0:
		return errors.New("max_nominators_per_validator must not be negative")
	case c.MaxUnlockChunks < 1:
		return errors.New("max_unlock_chunks must be positive")
	case c.SnapshotRetention < 2*c.EraLength:
		return errors.Errorf("snapshot_retention must keep at least two eras (%d rounds)", 2*c.EraLength)
	case c.SnapshotBudget < 1 || c.PayoutBudget < 1:
		return errors.New("snapshot and payout budgets must be positive")
	case c.TreasuryAccount.IsZero():
		return errors.New("treasury_account must be set")
	}
	return nil
}
