package icmd

import (
	"errors"
	"testing"
)

func TestConfigEncode(t *testing.T) {
	ccw := CntSetup{Direction: CCW}
	zinv := CntSetup{ZSignal: ZInverted}
	tests := []struct {
		cfg  Config
		want uint8
	}{
		{Config{Mode: Cnt1x24}, 0b000},
		{Config{Mode: Cnt1x48}, 0b010},
		{Config{Mode: Cnt1x48, Setups: [3]CntSetup{ccw}}, 0b010 | 1<<3},
		{Config{Mode: Cnt1x48, Setups: [3]CntSetup{zinv}}, 0b010 | 1<<6},
		{Config{Mode: Cnt2x24, Setups: [3]CntSetup{{}, ccw}}, 0b001 | 1<<4},
		{Config{Mode: Cnt2x24, Setups: [3]CntSetup{{}, zinv}}, 0b001 | 1<<7},
		{Config{Mode: Cnt32And16, Setups: [3]CntSetup{ccw, zinv}}, 0b101 | 1<<3 | 1<<7},
		// A single-counter mode ignores the other setups.
		{Config{Mode: Cnt1x16, Setups: [3]CntSetup{{}, ccw, ccw}}, 0b011},
		// Three-counter mode has no Z inputs; the polarity is ignored.
		{Config{Mode: Cnt3x16, Setups: [3]CntSetup{zinv, zinv, ccw}}, 0b111 | 1<<5},
	}
	for _, test := range tests {
		if got := test.cfg.encode(); got != test.want {
			t.Errorf("encode(%+v) = %#08b, want %#08b", test.cfg, got, test.want)
		}
	}
}

func TestModeCounters(t *testing.T) {
	counts := map[Mode]int{
		Cnt1x24: 1, Cnt2x24: 2, Cnt1x48: 1, Cnt1x16: 1,
		Cnt1x32: 1, Cnt32And16: 2, Cnt2x16: 2, Cnt3x16: 3,
	}
	for m, want := range counts {
		if got := m.Counters(); got != want {
			t.Errorf("mode %03b: %d counters, want %d", m, got, want)
		}
	}
}

func TestSetConfigRoundTrip(t *testing.T) {
	fields := []struct {
		f   Field
		max uint8
	}{
		{FieldMode, 7},
		{FieldDirection0, 1},
		{FieldDirection1, 1},
		{FieldDirection2, 1},
		{FieldZSignal0, 1},
		{FieldZSignal1, 1},
	}
	sim := NewSimulator()
	dev := New(sim)
	for _, field := range fields {
		for v := uint8(0); v <= field.max; v++ {
			if err := dev.SetConfig(field.f, v); err != nil {
				t.Fatalf("SetConfig(%d, %d): %v", field.f, v, err)
			}
			got, err := dev.Config(field.f)
			if err != nil {
				t.Fatalf("Config(%d): %v", field.f, err)
			}
			if got != v {
				t.Errorf("field %d round trip = %d, want %d", field.f, got, v)
			}
		}
	}
}

func TestSetConfigPreservesOtherFields(t *testing.T) {
	sim := NewSimulator()
	dev := New(sim)
	if err := dev.Configure(Config{Mode: Cnt2x24, Setups: [3]CntSetup{{Direction: CCW}, {ZSignal: ZInverted}}}); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetConfig(FieldDirection1, uint8(CCW)); err != nil {
		t.Fatal(err)
	}
	for f, want := range map[Field]uint8{
		FieldMode:       uint8(Cnt2x24),
		FieldDirection0: uint8(CCW),
		FieldDirection1: uint8(CCW),
		FieldZSignal1:   uint8(ZInverted),
		FieldZSignal0:   uint8(ZNormal),
	} {
		got, err := dev.Config(f)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("field %d = %d, want %d", f, got, want)
		}
	}
}

func TestSetConfigRejectsOutOfRange(t *testing.T) {
	sim := NewSimulator()
	dev := New(sim)
	if err := dev.SetConfig(FieldDirection0, 2); !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want a protocol violation", err)
	}
	if err := dev.SetConfig(FieldMode, 8); !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want a protocol violation", err)
	}
	if err := dev.SetConfig(Field(42), 0); !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want a protocol violation", err)
	}
	if len(sim.Frames) != 0 {
		t.Errorf("%d transactions reached the bus, want none", len(sim.Frames))
	}
}

func TestConfigReadsLive(t *testing.T) {
	sim := NewSimulator()
	dev := New(sim)
	if _, err := dev.Config(FieldMode); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.Config(FieldMode); err != nil {
		t.Fatal(err)
	}
	// Never answered from a cache: each query is a register read.
	want := []Frame{
		{Cmd: []byte{opRead | regCNTCFG}, Resp: 1},
		{Cmd: []byte{opRead | regCNTCFG}, Resp: 1},
	}
	checkFrames(t, sim.Frames, want)
}

func TestSetConfigModeResizesReadout(t *testing.T) {
	sim := NewSimulator()
	dev := New(sim)
	if err := dev.SetConfig(FieldMode, uint8(Cnt1x16)); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.ReadCounter(); err != nil {
		t.Fatal(err)
	}
	last := sim.Frames[len(sim.Frames)-1]
	if last.Cmd[0] != opRead|regDATA || last.Resp != 3 {
		t.Errorf("counter read = % x (%d response bytes), want a 3 byte readout", last.Cmd, last.Resp)
	}
}
