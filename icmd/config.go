package icmd

import (
	"fmt"
)

// Mode selects the counter arrangement. The iC-MD splits its 48 counter bits
// into one to three counters of 16 to 48 bits; modes with more than one
// counter support TTL inputs only.
type Mode uint8

const (
	Cnt1x24    Mode = 0b000 // one 24 bit counter
	Cnt2x24    Mode = 0b001 // two 24 bit counters
	Cnt1x48    Mode = 0b010 // one 48 bit counter
	Cnt1x16    Mode = 0b011 // one 16 bit counter
	Cnt1x32    Mode = 0b100 // one 32 bit counter
	Cnt32And16 Mode = 0b101 // a 32 bit counter 1 and a 16 bit counter 0
	Cnt2x16    Mode = 0b110 // two 16 bit counters
	Cnt3x16    Mode = 0b111 // three 16 bit counters, no Z inputs
)

// Counters reports the number of counters the mode provides.
func (m Mode) Counters() int {
	return len(counterBits[m])
}

// Direction sets which rotation direction counts up.
type Direction uint8

const (
	CW  Direction = 0
	CCW Direction = 1
)

// ZSignal sets the polarity of the index (Z) input.
type ZSignal uint8

const (
	ZNormal   ZSignal = 0
	ZInverted ZSignal = 1
)

// CntSetup is the per-counter part of the configuration register.
type CntSetup struct {
	Direction Direction
	ZSignal   ZSignal
}

// Config is the full content of the configuration register. Setups beyond
// the number of counters the mode provides are ignored, as is the Z signal
// setup in three-counter mode, which has no Z inputs.
type Config struct {
	Mode   Mode
	Setups [3]CntSetup
}

// encode packs the configuration into the CNTCFG register layout:
// mode in bits 0-2, directions in bits 3-5, Z polarities in bits 6-7.
func (c Config) encode() uint8 {
	v := uint8(c.Mode)
	for i := 0; i < c.Mode.Counters(); i++ {
		v |= uint8(c.Setups[i].Direction) << (3 + i)
		if i < 2 && c.Mode != Cnt3x16 {
			v |= uint8(c.Setups[i].ZSignal) << (6 + i)
		}
	}
	return v
}

// Field names a bit field of the configuration register.
type Field uint8

const (
	FieldMode Field = iota
	FieldDirection0
	FieldDirection1
	FieldDirection2
	FieldZSignal0
	FieldZSignal1
)

var fieldMap = [...]struct {
	shift, width uint8
}{
	FieldMode:       {0, 3},
	FieldDirection0: {3, 1},
	FieldDirection1: {4, 1},
	FieldDirection2: {5, 1},
	FieldZSignal0:   {6, 1},
	FieldZSignal1:   {7, 1},
}

// SetConfig sets a single configuration field through a read-modify-write of
// the live configuration register. An out of range value is rejected before
// any bus activity.
func (d *Dev) SetConfig(f Field, v uint8) error {
	if int(f) >= len(fieldMap) {
		return fmt.Errorf("icmd: unknown config field %d: %w", f, ErrProtocol)
	}
	fl := fieldMap[f]
	if v >= 1<<fl.width {
		return fmt.Errorf("icmd: config field value %#x exceeds %d bits: %w", v, fl.width, ErrProtocol)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, err := d.readReg(regCNTCFG)
	if err != nil {
		return err
	}
	mask := uint64(1<<fl.width-1) << fl.shift
	cfg = cfg&^mask | uint64(v)<<fl.shift
	if err := d.writeReg(regCNTCFG, cfg); err != nil {
		return err
	}
	if f == FieldMode {
		d.mode = Mode(v)
	}
	return nil
}

// Config reads a single configuration field from the live configuration
// register. The chip is the source of truth; nothing is answered from a
// cache.
func (d *Dev) Config(f Field) (uint8, error) {
	if int(f) >= len(fieldMap) {
		return 0, fmt.Errorf("icmd: unknown config field %d: %w", f, ErrProtocol)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, err := d.readReg(regCNTCFG)
	if err != nil {
		return 0, err
	}
	fl := fieldMap[f]
	return uint8(cfg>>fl.shift) & (1<<fl.width - 1), nil
}
