// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eden

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"with prefix", "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"upper prefix", "0X7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"no prefix", "7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"bad prefix", "1x7567d83b7b8d80addcb281a71d54fc7b3364ffed", true},
		{"short", "0x7567", true},
		{"bad hex", "0x7567d83b7b8d80addcb281a71d54fc7b3364ffzz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())
		})
	}
}

func TestBytesToAddress(t *testing.T) {
	assert.Equal(t, Address{19: 1}, BytesToAddress([]byte{1}))

	long := make([]byte, 32)
	long[31] = 7
	long[0] = 9
	assert.Equal(t, Address{19: 7}, BytesToAddress(long))
}

func TestAddressOrdering(t *testing.T) {
	a := Address{0: 1}
	b := Address{0: 2}
	c := Address{19: 1}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, a.Compare(c))
	assert.Equal(t, 0, a.Compare(a))

	addrs := []Address{b, a, c}
	SortAddresses(addrs)
	assert.Equal(t, []Address{c, a, b}, addrs)
}

func TestAddressJSON(t *testing.T) {
	addr := MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	data, err := json.Marshal(&addr)
	require.NoError(t, err)
	assert.Equal(t, `"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
	assert.False(t, decoded.IsZero())
	assert.True(t, Address{}.IsZero())
}
