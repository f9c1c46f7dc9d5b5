// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ratio

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/staker/reverts"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		parts   uint64
		denom   uint64
		wantErr bool
	}{
		{"zero", 0, Perbill, false},
		{"one", Perbill, Perbill, false},
		{"half quintill", Perquintill / 2, Perquintill, false},
		{"above one", Perbill + 1, Perbill, true},
		{"zero denominator", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.parts, tt.denom)
			if tt.wantErr {
				assert.True(t, errors.Is(err, reverts.ErrOutOfRange))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.parts, r.Parts())
			assert.Equal(t, tt.denom, r.Denominator())
		})
	}
}

func TestMulBalanceFloors(t *testing.T) {
	third, err := New(1, 3)
	require.NoError(t, err)

	tests := []struct {
		r    Ratio
		b    uint64
		want uint64
	}{
		{FromPercent(10), 1000, 100},
		{FromPercent(10), 999, 99},
		{third, 10, 3},
		{third, 2, 0},
		{One(Perquintill), 12345, 12345},
		{Zero(Perbill), 12345, 0},
		{Ratio{}, 12345, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.MulBalance(uint256.NewInt(tt.b)).Uint64(), "%v * %d", tt.r, tt.b)
	}

	huge := new(uint256.Int).SetAllOne()
	half := MustPerbill(Perbill / 2)
	assert.Equal(t, new(uint256.Int).Rsh(huge, 1), half.MulBalance(huge), "wide intermediate product")
}

func TestComplementAndCmp(t *testing.T) {
	r := MustPerbill(300_000_000)
	assert.Equal(t, uint64(700_000_000), r.Complement().Parts())

	q, err := NewPerquintill(300_000_000_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Cmp(q))
	assert.Equal(t, -1, r.Cmp(FromPercent(31)))
	assert.Equal(t, 1, r.Cmp(FromPercent(29)))
	assert.True(t, One(Perbill).IsOne())
	assert.True(t, Ratio{}.IsZero())
}

func TestFromRational(t *testing.T) {
	r := FromRational(uint256.NewInt(1), uint256.NewInt(3), Perbill)
	assert.Equal(t, uint64(333_333_333), r.Parts())

	assert.True(t, FromRational(uint256.NewInt(5), uint256.NewInt(0), Perbill).IsZero())
	assert.True(t, FromRational(uint256.NewInt(5), uint256.NewInt(4), Perbill).IsOne())

	big := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	r = FromRational(big, new(uint256.Int).Lsh(big, 1), Perquintill)
	assert.Equal(t, Perquintill/2, r.Parts())
}

func TestStringAndParse(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		str  string
	}{
		{"10%", 100_000_000, "10%"},
		{"12.5%", 125_000_000, "12.5%"},
		{"0.125", 125_000_000, "12.5%"},
		{"100%", Perbill, "100%"},
		{"1", Perbill, "100%"},
		{".5", 500_000_000, "50%"},
		{"0.0000000019", 1, "0.0000001%"},
	}
	for _, tt := range tests {
		r, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, r.Parts(), tt.in)
		assert.Equal(t, tt.str, r.String(), tt.in)
	}

	for _, bad := range []string{"101%", "1.5", "abc", "-1%"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}

	var r Ratio
	require.NoError(t, r.UnmarshalText([]byte("25%")))
	text, err := r.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "25%", string(text))
}

func TestRLP(t *testing.T) {
	type holder struct {
		Fraction Ratio
		Other    uint64
	}
	in := holder{Fraction: MustPerbill(42), Other: 7}
	data, err := rlp.EncodeToBytes(&in)
	require.NoError(t, err)

	var out holder
	require.NoError(t, rlp.DecodeBytes(data, &out))
	assert.Equal(t, in, out)

	bad, err := rlp.EncodeToBytes(&encoded{Parts: 5, Denom: 4})
	require.NoError(t, err)
	var r Ratio
	assert.Error(t, rlp.DecodeBytes(bad, &r))
}

func TestMulBalanceNeverExceedsInput(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 500 {
		var parts, b uint64
		f.Fuzz(&parts)
		f.Fuzz(&b)
		r := MustPerbill(parts % (Perbill + 1))
		balance := uint256.NewInt(b)

		share := r.MulBalance(balance)
		rest := r.Complement().MulBalance(balance)

		assert.True(t, share.Cmp(balance) <= 0)
		sum := new(uint256.Int).Add(share, rest)
		assert.True(t, sum.Cmp(balance) <= 0, "floors of complements never exceed the whole")
		assert.True(t, new(uint256.Int).Sub(balance, sum).Uint64() <= 1)
	}
}
