package util

import (
	"errors"
	"strconv"
	"testing"

	"golang.org/x/exp/constraints"
)

func TestWidth(t *testing.T) {
	tests := []struct {
		got  int
		want int
	}{
		{Width[uint8](), 8},
		{Width[int8](), 8},
		{Width[uint16](), 16},
		{Width[int16](), 16},
		{Width[uint32](), 32},
		{Width[int32](), 32},
		{Width[uint64](), 64},
		{Width[int64](), 64},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("case %d: expected width %d, got %d", i, tt.want, tt.got)
		}
	}
}

func TestGetBit(t *testing.T) {
	v := uint8(5) // 00000101
	expected := []bool{true, false, true, false, false, false, false, false}
	for i, want := range expected {
		got, err := GetBit(v, i)
		if err != nil {
			t.Fatalf("GetBit(%d, %d) failed: %v", v, i, err)
		}
		if got != want {
			t.Errorf("Expected bit %d of %d to be %v, got %v", i, v, want, got)
		}
	}
}

func TestGetBitNegative(t *testing.T) {
	// Sign extension must not leak into the comparison.
	set, err := GetBit(int8(-128), 7)
	if err != nil || !set {
		t.Errorf("Expected bit 7 of -128 to be set, got %v (%v)", set, err)
	}
	for i := 0; i < 7; i++ {
		set, _ := GetBit(int8(-128), i)
		if set {
			t.Errorf("Expected bit %d of -128 to be clear", i)
		}
	}
	set, _ = GetBit(int64(-1), 63)
	if !set {
		t.Errorf("Expected bit 63 of int64(-1) to be set")
	}
}

func TestConcreteCases(t *testing.T) {
	if s := BinaryString(uint8(5)); s != "00000101" {
		t.Errorf("Expected 00000101, got %s", s)
	}
	if v, err := ToggleBit(uint8(0), 7); err != nil || v != 128 {
		t.Errorf("Expected ToggleBit(0, 7) == 128, got %d (%v)", v, err)
	}
	if v, err := SetBit(uint8(255), 0, false); err != nil || v != 254 {
		t.Errorf("Expected SetBit(255, 0, false) == 254, got %d (%v)", v, err)
	}
	if v, err := ToggleBit(int8(0), 7); err != nil || v != -128 {
		t.Errorf("Expected ToggleBit(int8(0), 7) == -128, got %d (%v)", v, err)
	}
	if s := BinaryString(int16(-2)); s != "1111111111111110" {
		t.Errorf("Expected 1111111111111110, got %s", s)
	}
}

func TestIndexOutOfRange(t *testing.T) {
	if _, err := GetBit(uint8(1), 8); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for index 8, got %v", err)
	}
	if _, err := GetBit(uint8(1), -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for index -1, got %v", err)
	}
	if v, err := ToggleBit(int16(7), 16); !errors.Is(err, ErrIndexOutOfRange) || v != 7 {
		t.Errorf("Expected unchanged value and ErrIndexOutOfRange, got %d, %v", v, err)
	}
	if _, err := SetBit(uint64(0), 64, true); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for index 64, got %v", err)
	}
	if _, err := GetBitN(0, 7, 0); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("Expected ErrInvalidWidth for width 7, got %v", err)
	}
}

// checkAllBits verifies toggle and set for every bit of v.
func checkAllBits[T constraints.Integer](t *testing.T, v T) {
	t.Helper()
	w := Width[T]()
	for i := 0; i < w; i++ {
		before, err := GetBit(v, i)
		if err != nil {
			t.Fatalf("GetBit(%d, %d) failed: %v", v, i, err)
		}

		toggled, _ := ToggleBit(v, i)
		after, _ := GetBit(toggled, i)
		if after == before {
			t.Errorf("ToggleBit(%d, %d) did not flip the bit", v, i)
		}
		if diff := pattern(v) ^ pattern(toggled); diff != 1<<uint(i) {
			t.Errorf("ToggleBit(%d, %d) changed other bits: diff %x", v, i, diff)
		}
		if back, _ := ToggleBit(toggled, i); back != v {
			t.Errorf("ToggleBit is not its own inverse for %d, bit %d: got %d", v, i, back)
		}

		for _, d := range []bool{true, false} {
			s, _ := SetBit(v, i, d)
			if got, _ := GetBit(s, i); got != d {
				t.Errorf("SetBit(%d, %d, %v) left bit as %v", v, i, d, got)
			}
			if (pattern(v)^pattern(s))&^(1<<uint(i)) != 0 {
				t.Errorf("SetBit(%d, %d, %v) changed other bits", v, i, d)
			}
		}
	}

	s := BinaryString(v)
	if len(s) != w {
		t.Errorf("Expected BinaryString(%d) to have %d chars, got %d", v, w, len(s))
	}
	p, err := strconv.ParseUint(s, 2, 64)
	if err != nil || p != pattern(v) {
		t.Errorf("BinaryString(%d) = %s does not round trip: %x (%v)", v, s, p, err)
	}
	back, err := ParseBinary[T](s)
	if err != nil || back != v {
		t.Errorf("ParseBinary(%s) = %d, want %d (%v)", s, back, v, err)
	}
}

func TestAllBits8(t *testing.T) {
	for i := 0; i < 256; i++ {
		checkAllBits(t, uint8(i))
		checkAllBits(t, int8(i))
	}
}

func TestAllBitsWide(t *testing.T) {
	samples := []uint64{0, 1, 5, 0x80, 0xAAAA, 0x5555, 0x8000_0000, 0xDEAD_BEEF, 0x8000_0000_0000_0000, ^uint64(0)}
	for _, s := range samples {
		checkAllBits(t, uint16(s))
		checkAllBits(t, int16(s))
		checkAllBits(t, uint32(s))
		checkAllBits(t, int32(s))
		checkAllBits(t, s)
		checkAllBits(t, int64(s))
	}
}

func TestBinaryString64(t *testing.T) {
	s := BinaryString(int64(-1))
	if len(s) != 64 {
		t.Fatalf("Expected 64 chars, got %d", len(s))
	}
	s = BinaryString(uint64(1))
	if s[63] != '1' || s[0] != '0' {
		t.Errorf("Expected LSB last, got %s", s)
	}
}

func TestParseBinaryErrors(t *testing.T) {
	for _, s := range []string{"", "0101", "000001012", "0000010x"} {
		if _, err := ParseBinary[uint8](s); !errors.Is(err, ErrInvalidBinary) {
			t.Errorf("Expected ErrInvalidBinary for %q, got %v", s, err)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		p     uint64
		width int
		want  int64
	}{
		{0xFF, 8, -1},
		{0x7F, 8, 127},
		{0x8000, 16, -32768},
		{0xFFFF_FFFE, 32, -2},
		{^uint64(0), 64, -1},
		{5, 8, 5},
	}
	for _, tt := range tests {
		if got := SignExtend(tt.p, tt.width); got != tt.want {
			t.Errorf("SignExtend(%x, %d) = %d, want %d", tt.p, tt.width, got, tt.want)
		}
	}
}
