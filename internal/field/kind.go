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

package field

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedKind = errors.New("unsupported field type")

// Kind is the declared integer type of a bit field: its width and signedness.
type Kind int

const (
	Int8 Kind = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
)

var kindNames = []string{"int8", "uint8", "int16", "uint16", "int32", "uint32", "int64", "uint64"}

var kindAliases = map[string]Kind{
	"sbyte":  Int8,
	"byte":   Uint8,
	"short":  Int16,
	"ushort": Uint16,
	"int":    Int32,
	"uint":   Uint32,
	"long":   Int64,
	"ulong":  Uint64,
}

func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w %q. Supported types are %s", ErrUnsupportedKind, name, strings.Join(kindNames, ", "))
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Width returns the number of bits of the kind.
func (k Kind) Width() int {
	return 8 << (uint(k) / 2)
}

func (k Kind) Signed() bool {
	return k%2 == 0
}

func (k Kind) valid() bool {
	return k >= Int8 && k <= Uint64
}

// Set implements flag.Value.
func (k *Kind) Set(value string) error {
	parsed, err := ParseKind(value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
