// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eden

// Block time constants. A block is produced every BlockInterval seconds.
const (
	BlockInterval uint64 = 6

	MinuteBlocks uint32 = 60 / uint32(BlockInterval)
	HourBlocks          = MinuteBlocks * 60
	DayBlocks           = HourBlocks * 24

	// EpochBlocks is the default round length.
	EpochBlocks = HourBlocks * 4
)

// BlockNumber is the height of a block.
type BlockNumber = uint32
