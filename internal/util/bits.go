/*
 * This file is part of the Bit Field Tool ("bitfield")
 * Copyright (C) 2025 Andreas Signer <asigner@gmail.com>
 *
 * bitfield is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * bitfield is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with bitfield.  If not, see <https://www.gnu.org/licenses/>.
 */

package util

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidWidth    = errors.New("invalid bit width")
	ErrInvalidBinary   = errors.New("invalid binary string")
)

// Width returns the number of bits in T's representation.
func Width[T constraints.Integer]() int {
	var v T
	return int(unsafe.Sizeof(v)) * 8
}

// pattern returns the two's-complement bit pattern of v, truncated to T's width.
func pattern[T constraints.Integer](v T) uint64 {
	return uint64(v) & Mask(Width[T]())
}

func GetBit[T constraints.Integer](v T, index int) (bool, error) {
	return GetBitN(pattern(v), Width[T](), index)
}

func SetBit[T constraints.Integer](v T, index int, desired bool) (T, error) {
	p, err := SetBitN(pattern(v), Width[T](), index, desired)
	if err != nil {
		return v, err
	}
	return T(p), nil
}

func ToggleBit[T constraints.Integer](v T, index int) (T, error) {
	p, err := ToggleBitN(pattern(v), Width[T](), index)
	if err != nil {
		return v, err
	}
	return T(p), nil
}

// BinaryString renders v most significant bit first, e.g. uint8(5) is "00000101".
func BinaryString[T constraints.Integer](v T) string {
	return BinaryStringN(pattern(v), Width[T]())
}

func ParseBinary[T constraints.Integer](s string) (T, error) {
	p, err := ParseBinaryN(s, Width[T]())
	if err != nil {
		return 0, err
	}
	return T(p), nil
}

func validWidth(width int) error {
	switch width {
	case 8, 16, 32, 64:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidWidth, width)
}

func checkIndex(width, index int) error {
	if err := validWidth(width); err != nil {
		return err
	}
	if index < 0 || index >= width {
		return fmt.Errorf("%w: bit %d not in [0, %d)", ErrIndexOutOfRange, index, width)
	}
	return nil
}

// Mask returns a pattern with the low width bits set.
func Mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// SignExtend interprets the low width bits of p as a two's-complement number.
func SignExtend(p uint64, width int) int64 {
	shift := uint(64 - width)
	return int64(p<<shift) >> shift
}

// GetBitN reports whether bit index of the width bit pattern p is set.
func GetBitN(p uint64, width, index int) (bool, error) {
	if err := checkIndex(width, index); err != nil {
		return false, err
	}
	return (p>>uint(index))&1 == 1, nil
}

// SetBitN returns p with bit index set to desired.
func SetBitN(p uint64, width, index int, desired bool) (uint64, error) {
	set, err := GetBitN(p, width, index)
	if err != nil {
		return p, err
	}
	if set == desired {
		return p & Mask(width), nil
	}
	return ToggleBitN(p, width, index)
}

// ToggleBitN returns p with bit index flipped.
func ToggleBitN(p uint64, width, index int) (uint64, error) {
	if err := checkIndex(width, index); err != nil {
		return p, err
	}
	flag := (uint64(1) << uint(index)) & Mask(width)
	return (p ^ flag) & Mask(width), nil
}

// BinaryStringN renders the low width bits of p, most significant first.
// It returns "" for unsupported widths.
func BinaryStringN(p uint64, width int) string {
	if validWidth(width) != nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(width)
	for i := width - 1; i >= 0; i-- {
		if (p>>uint(i))&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseBinaryN parses exactly width '0'/'1' digits, most significant first.
func ParseBinaryN(s string, width int) (uint64, error) {
	if err := validWidth(width); err != nil {
		return 0, err
	}
	if len(s) != width {
		return 0, fmt.Errorf("%w: want %d digits, got %d", ErrInvalidBinary, width, len(s))
	}
	var p uint64
	for i := 0; i < len(s); i++ {
		p <<= 1
		switch s[i] {
		case '0':
		case '1':
			p |= 1
		default:
			return 0, fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidBinary, s[i], i)
		}
	}
	return p, nil
}
