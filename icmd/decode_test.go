package icmd

import (
	"math/rand"
	"testing"
)

func TestSignExtendBoundaries(t *testing.T) {
	tests := []struct {
		raw  uint64
		bits int
		want int64
	}{
		{0x000000000000, 48, 0},
		{0x000000000001, 48, 1},
		{0x7fffffffffff, 48, 140737488355327},
		{0x800000000000, 48, -140737488355328},
		{0xffffffffffff, 48, -1},
		{0x00002a, 24, 42},
		{0x7fffff, 24, 1<<23 - 1},
		{0x800000, 24, -(1 << 23)},
		{0xffffff, 24, -1},
		{0x7fff, 16, 1<<15 - 1},
		{0x8000, 16, -(1 << 15)},
		{0xffff, 16, -1},
		{0x7fffffff, 32, 1<<31 - 1},
		{0x80000000, 32, -(1 << 31)},
		{0xffffffff, 32, -1},
	}
	for _, test := range tests {
		if got := signExtend(test.raw, test.bits); got != test.want {
			t.Errorf("signExtend(%#x, %d) = %d, want %d", test.raw, test.bits, got, test.want)
		}
	}
}

func TestSignExtendTwosComplement(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		raw := rng.Uint64() & (1<<48 - 1)
		want := int64(raw)
		if raw >= 1<<47 {
			want = int64(raw) - 1<<48
		}
		if got := signExtend(raw, 48); got != want {
			t.Fatalf("signExtend(%#x, 48) = %d, want %d", raw, got, want)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 42, -42, 1<<47 - 1, -(1 << 47), 1 << 33, -(1<<33 + 7)}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		values = append(values, rng.Int63n(1<<48)-1<<47)
	}
	for _, v := range values {
		if got := signExtend(encodeRaw(v, 48), 48); got != v {
			t.Fatalf("round trip of %d through 48 bits = %d", v, got)
		}
	}
}

func TestDecodeReadingWireOrder(t *testing.T) {
	// Multi-counter readouts carry the highest-numbered counter first.
	r := decodeReading(Cnt3x16, []byte{0x00, 0x03, 0x00, 0x02, 0x00, 0x01, 0xc0})
	if len(r.Counts) != 3 {
		t.Fatalf("got %d counts, want 3", len(r.Counts))
	}
	for i, want := range []int64{1, 2, 3} {
		if r.Counts[i] != want {
			t.Errorf("counter %d = %d, want %d", i, r.Counts[i], want)
		}
	}
	if r.Warn || r.Err {
		t.Errorf("flags = %v, %v, want clear", r.Warn, r.Err)
	}
}

func TestDecodeReadingFlags(t *testing.T) {
	// NERR and NWARN are active low.
	r := decodeReading(Cnt1x16, []byte{0x00, 0x00, 0x40})
	if r.Warn || !r.Err {
		t.Errorf("flags 0x40: warn=%v err=%v, want warn=false err=true", r.Warn, r.Err)
	}
	r = decodeReading(Cnt1x16, []byte{0x00, 0x00, 0x80})
	if !r.Warn || r.Err {
		t.Errorf("flags 0x80: warn=%v err=%v, want warn=true err=false", r.Warn, r.Err)
	}
}
