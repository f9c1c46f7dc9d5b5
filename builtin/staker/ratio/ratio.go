// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ratio implements fixed-point values in [0, 1] over a fixed denominator.
// Every multiplication rounds down.
package ratio

import (
	"io"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/reverts"
)

// Supported denominators.
const (
	Perbill     uint64 = 1_000_000_000
	Perquintill uint64 = 1_000_000_000_000_000_000
)

// Ratio is parts/denom with parts <= denom. The zero value is a zero Perbill.
type Ratio struct {
	parts uint64
	denom uint64
}

// New builds a ratio, failing with ErrOutOfRange when parts exceeds denom.
func New(parts, denom uint64) (Ratio, error) {
	if denom == 0 || parts > denom {
		return Ratio{}, errors.Wrapf(reverts.ErrOutOfRange, "%d/%d", parts, denom)
	}
	return Ratio{parts: parts, denom: denom}, nil
}

// NewPerbill builds a parts-per-billion ratio.
func NewPerbill(parts uint64) (Ratio, error) {
	return New(parts, Perbill)
}

// NewPerquintill builds a parts-per-quintillion ratio.
func NewPerquintill(parts uint64) (Ratio, error) {
	return New(parts, Perquintill)
}

// MustPerbill is NewPerbill that panics on error.
func MustPerbill(parts uint64) Ratio {
	r, err := NewPerbill(parts)
	if err != nil {
		panic(err)
	}
	return r
}

// FromPercent returns a Perbill ratio of percent/100, saturating at one.
func FromPercent(percent uint64) Ratio {
	if percent >= 100 {
		return One(Perbill)
	}
	return Ratio{parts: percent * (Perbill / 100), denom: Perbill}
}

// FromRational returns floor(n/d) expressed over denom, saturating at one.
// A zero d yields zero.
func FromRational(n, d *uint256.Int, denom uint64) Ratio {
	if d.IsZero() || n.IsZero() {
		return Zero(denom)
	}
	if n.Cmp(d) >= 0 {
		return One(denom)
	}
	parts, _ := new(uint256.Int).MulDivOverflow(n, uint256.NewInt(denom), d)
	return Ratio{parts: parts.Uint64(), denom: denom}
}

// Zero returns 0/denom.
func Zero(denom uint64) Ratio { return Ratio{parts: 0, denom: denom} }

// One returns denom/denom.
func One(denom uint64) Ratio { return Ratio{parts: denom, denom: denom} }

func (r Ratio) norm() Ratio {
	if r.denom == 0 {
		return Ratio{parts: 0, denom: Perbill}
	}
	return r
}

// Parts returns the numerator.
func (r Ratio) Parts() uint64 { return r.norm().parts }

// Denominator returns the fixed denominator.
func (r Ratio) Denominator() uint64 { return r.norm().denom }

func (r Ratio) IsZero() bool { return r.parts == 0 }

func (r Ratio) IsOne() bool {
	n := r.norm()
	return n.parts == n.denom
}

// MulBalance returns floor(b * parts / denom). The intermediate product is
// computed on 512 bits; the result saturates at the maximum balance.
func (r Ratio) MulBalance(b *uint256.Int) *uint256.Int {
	n := r.norm()
	z, overflow := new(uint256.Int).MulDivOverflow(b, uint256.NewInt(n.parts), uint256.NewInt(n.denom))
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return z
}

// Complement returns 1 - r at the same denominator.
func (r Ratio) Complement() Ratio {
	n := r.norm()
	return Ratio{parts: n.denom - n.parts, denom: n.denom}
}

// Cmp compares r and o after normalising denominators.
func (r Ratio) Cmp(o Ratio) int {
	a, b := r.norm(), o.norm()
	left := new(uint256.Int).Mul(uint256.NewInt(a.parts), uint256.NewInt(b.denom))
	right := new(uint256.Int).Mul(uint256.NewInt(b.parts), uint256.NewInt(a.denom))
	return left.Cmp(right)
}

// String renders the ratio as a percentage with trailing zeros trimmed, e.g. "12.5%".
func (r Ratio) String() string {
	n := r.norm()
	hundredths := new(uint256.Int).Mul(uint256.NewInt(n.parts), uint256.NewInt(100))
	whole, rem := new(uint256.Int).DivMod(hundredths, uint256.NewInt(n.denom), new(uint256.Int))
	if rem.IsZero() {
		return whole.Dec() + "%"
	}
	digits := len(strconv.FormatUint(n.denom, 10)) - 1
	frac, _ := new(uint256.Int).MulDivOverflow(rem, new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(digits))), uint256.NewInt(n.denom))
	dec := frac.Dec()
	dec = strings.Repeat("0", digits-len(dec)) + dec
	return whole.Dec() + "." + strings.TrimRight(dec, "0") + "%"
}

// Parse reads a Perbill ratio written either as a percentage ("12.5%") or as a
// decimal fraction ("0.125"). Digits beyond Perbill precision are truncated.
func Parse(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	scale := Perbill
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = Perbill / 100
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return Ratio{}, errors.Wrapf(err, "parse ratio %q", s)
	}
	digits := len(strconv.FormatUint(scale, 10)) - 1
	if len(frac) > digits {
		frac = frac[:digits]
	}
	var f uint64
	if frac != "" {
		if f, err = strconv.ParseUint(frac+strings.Repeat("0", digits-len(frac)), 10, 64); err != nil {
			return Ratio{}, errors.Wrapf(err, "parse ratio %q", s)
		}
	}
	if w > Perbill/scale {
		return Ratio{}, errors.Wrapf(reverts.ErrOutOfRange, "%q", s)
	}
	return New(w*scale+f, Perbill)
}

// MarshalText implements encoding.TextMarshaler.
func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ratio) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type encoded struct {
	Parts uint64
	Denom uint64
}

// EncodeRLP implements rlp.Encoder.
func (r Ratio) EncodeRLP(w io.Writer) error {
	n := r.norm()
	return rlp.Encode(w, &encoded{n.parts, n.denom})
}

// DecodeRLP implements rlp.Decoder.
func (r *Ratio) DecodeRLP(s *rlp.Stream) error {
	var e encoded
	if err := s.Decode(&e); err != nil {
		return err
	}
	decoded, err := New(e.Parts, e.Denom)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}
