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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTooManyLabels = errors.New("too many labels")

// Labels names the bits of a field, indexed by bit. Empty entries are unused bits.
type Labels []string

// Unused is the label of bits without a name.
const Unused = "(unused)"

// ParseLabels splits a comma separated list. Empty entries stay unused.
func ParseLabels(list string) Labels {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var res Labels
	for _, l := range strings.Split(list, ",") {
		res = append(res, strings.TrimSpace(l))
	}
	return res
}

// ReadLabels reads enum style names, one per line. Blank lines and lines
// starting with '#' are skipped, so consecutive names map to consecutive bits.
func ReadLabels(r io.Reader) (Labels, error) {
	var res Labels
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Allow "Name = 4," style enum members; only the name is used.
		if i := strings.IndexAny(line, "=,"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		res = append(res, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (l Labels) check(width int) error {
	if len(l) > width {
		return fmt.Errorf("%w: %d labels for a %d bit field", ErrTooManyLabels, len(l), width)
	}
	return nil
}

// Label returns the label of bit i, or "(unused)".
func (l Labels) Label(i int) string {
	if i < 0 || i >= len(l) || l[i] == "" {
		return Unused
	}
	return l[i]
}
