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
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/asig/bitfield/internal/util"
	"github.com/rs/zerolog/log"
)

var ErrInvalidValue = errors.New("invalid value")

// bitsPerBlock is the number of toggles rendered per block.
const bitsPerBlock = 16

// Field is a named integer of a given kind whose bits carry labels.
// It is safe for concurrent use.
type Field struct {
	name   string
	kind   Kind
	labels Labels

	mu  sync.RWMutex
	val uint64 // bit pattern, masked to kind's width
}

func New(name string, kind Kind, labels Labels) (*Field, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if err := labels.check(kind.Width()); err != nil {
		return nil, err
	}
	return &Field{name: name, kind: kind, labels: labels}, nil
}

func (f *Field) Name() string {
	return f.name
}

func (f *Field) Kind() Kind {
	return f.kind
}

func (f *Field) Width() int {
	return f.kind.Width()
}

func (f *Field) Label(i int) string {
	return f.labels.Label(i)
}

// Value returns the raw bit pattern.
func (f *Field) Value() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.val
}

// Decimal returns the value as a number of the field's kind.
func (f *Field) Decimal() string {
	return f.decimal(f.Value())
}

func (f *Field) decimal(p uint64) string {
	if f.kind.Signed() {
		return strconv.FormatInt(util.SignExtend(p, f.Width()), 10)
	}
	return strconv.FormatUint(p, 10)
}

func (f *Field) Binary() string {
	return util.BinaryStringN(f.Value(), f.Width())
}

// ParseValue parses s (decimal, 0x, 0o or 0b prefixed) into a bit pattern
// for the field's kind. Values outside the kind's range are rejected. Signed
// kinds also accept the unsigned form of their bit pattern, e.g. 0xff for int8.
func (f *Field) ParseValue(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	w := f.Width()
	if f.kind.Signed() {
		if v, err := strconv.ParseInt(s, 0, w); err == nil {
			return uint64(v) & util.Mask(w), nil
		}
	}
	v, err := strconv.ParseUint(s, 0, w)
	if err != nil {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidValue, f.kind, s)
	}
	return v, nil
}

func (f *Field) SetValue(s string) error {
	p, err := f.ParseValue(s)
	if err != nil {
		return err
	}
	f.mu.Lock()
	old := f.val
	f.val = p
	f.mu.Unlock()
	f.logChange(-1, old, p)
	return nil
}

func (f *Field) Bit(i int) (bool, error) {
	return util.GetBitN(f.Value(), f.Width(), i)
}

func (f *Field) SetBit(i int, value bool) error {
	return f.update(i, func(p uint64) (uint64, error) {
		return util.SetBitN(p, f.Width(), i, value)
	})
}

func (f *Field) ToggleBit(i int) error {
	return f.update(i, func(p uint64) (uint64, error) {
		return util.ToggleBitN(p, f.Width(), i)
	})
}

func (f *Field) update(bit int, fn func(uint64) (uint64, error)) error {
	f.mu.Lock()
	old := f.val
	p, err := fn(old)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.val = p
	f.mu.Unlock()
	f.logChange(bit, old, p)
	return nil
}

func (f *Field) logChange(bit int, old, cur uint64) {
	if old == cur {
		return
	}
	ev := log.Debug().Str("field", f.name)
	if bit >= 0 {
		ev = ev.Int("bit", bit).Str("label", f.Label(bit))
	}
	ev.Str("old", f.decimal(old)).Str("new", f.decimal(cur)).Msg("Bit field changed")
}

// Header returns the summary line and the binary representation.
func (f *Field) Header() string {
	return f.header(f.Value())
}

func (f *Field) header(p uint64) string {
	return fmt.Sprintf("BitField: %s (%s) - Value: %s\n%s", f.name, f.kind, f.decimal(p), util.BinaryStringN(p, f.Width()))
}

// Render writes the header followed by one toggle per bit, in blocks of 16.
func (f *Field) Render(w io.Writer) error {
	p := f.Value()
	var sb strings.Builder
	sb.WriteString(f.header(p))
	sb.WriteString("\n")
	for i := 0; i < f.Width(); i++ {
		if i%bitsPerBlock == 0 {
			sb.WriteString("\n")
		}
		mark := " "
		if set, _ := util.GetBitN(p, f.Width(), i); set {
			mark = "x"
		}
		sb.WriteString(fmt.Sprintf("[%s] %2d: %s\n", mark, i, f.Label(i)))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
