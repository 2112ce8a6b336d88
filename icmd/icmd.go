// package icmd implements a driver for the [iC-MD] quadrature counter.
//
// The iC-MD tracks up to three incremental encoder channels in a shared 48
// bit counter bank. All access goes through its SPI register file: the
// counters are latched into the readout registers and then read in one or
// more transactions, so a snapshot never tears even though the counters keep
// moving during the transfer.
//
// The driver is written against the minimal [Transport] interface. Use
// [NewSPI] for a periph.io bus, or any other conforming implementation.
//
// [iC-MD]: https://www.ichaus.de/MD
package icmd

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
)

// Transport is one point-to-point link to the chip. Tx performs a single
// bus transaction: select asserted, cmd written, len(resp) response bytes
// clocked in, select released. It returns the number of response bytes
// received.
//
// No other traffic may share the link for the duration of a call.
type Transport interface {
	Tx(cmd, resp []byte) (int, error)
}

var (
	// ErrBus reports a fault in the underlying transport. The in-flight
	// operation is aborted and never retried; retrying a half-completed
	// latch sequence could hand out a torn value.
	ErrBus = errors.New("icmd: bus fault")
	// ErrProtocol reports a driver-side violation of the register
	// protocol: a bad address, a value exceeding the register width, or a
	// truncated response. The bus itself is healthy.
	ErrProtocol = errors.New("icmd: protocol violation")
)

// Dev is a handle to an iC-MD.
//
// A Dev owns its Transport exclusively. Methods serialize, so one logical
// operation holds the bus at a time.
type Dev struct {
	mu   sync.Mutex
	t    Transport
	mode Mode
	// act holds the sticky actuator bits. The other instruction bits
	// self-clear on the chip, these two keep whatever was last written,
	// so every instruction write must carry them.
	act     uint8
	scratch [8]byte
}

// New returns a driver for the device behind t. The chip powers up in
// single 48 bit counter mode; call Configure to select another arrangement.
func New(t Transport) *Dev {
	return &Dev{t: t, mode: Cnt1x48}
}

// Configure writes the full configuration register and makes cfg.Mode the
// operating mode for subsequent counter reads.
func (d *Dev) Configure(cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeReg(regCNTCFG, uint64(cfg.encode())); err != nil {
		return err
	}
	d.mode = cfg.Mode
	return nil
}

// Mode reports the operating counter mode.
func (d *Dev) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// ReadCounter latches the counters and reads back one coherent snapshot.
//
// The latch is issued as its own transaction; the readout follows in as many
// back-to-back read transactions as the transport allows, without
// re-latching in between. Any fault aborts the whole snapshot.
func (d *Dev) ReadCounter() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Freeze the live counters into the readout registers. Everything
	// read below belongs to this one latch.
	if err := d.instruct(instrTP); err != nil {
		return Reading{}, fmt.Errorf("icmd: latch: %w", err)
	}
	width := dataWidth(d.mode)
	budget := width
	if l, ok := d.t.(conn.Limits); ok {
		// One byte of every transaction is the read opcode.
		if m := l.MaxTxSize(); m > 1 && m-1 < budget {
			budget = m - 1
		}
	}
	cmd, data := d.scratch[:1], d.scratch[1:1+width]
	for off := 0; off < width; {
		n := min(budget, width-off)
		cmd[0] = opRead | uint8(regDATA+off)
		got, err := d.t.Tx(cmd, data[off:off+n])
		if err != nil {
			return Reading{}, fmt.Errorf("%w: counter read: %w", ErrBus, err)
		}
		if got < n {
			return Reading{}, fmt.Errorf("%w: counter read returned %d of %d bytes", ErrProtocol, got, n)
		}
		off += n
	}
	return decodeReading(d.mode, data), nil
}

// ResetCounters zeroes the selected counters. Resetting a counter the
// current mode does not provide is ignored by the chip.
func (d *Dev) ResetCounters(cnt0, cnt1, cnt2 bool) error {
	var bits uint8
	if cnt0 {
		bits |= instrAbRes0
	}
	if cnt1 {
		bits |= instrAbRes1
	}
	if cnt2 {
		bits |= instrAbRes2
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instruct(bits)
}

// ResetAllCounters zeroes every counter.
func (d *Dev) ResetAllCounters() error {
	return d.ResetCounters(true, true, true)
}

// SetActuatorPins drives the ACT0 and ACT1 output pins. The chip offers no
// way to read them back; the driver re-asserts the last written state on
// every instruction it sends.
func (d *Dev) SetActuatorPins(act0, act1 bool) error {
	var bits uint8
	if act0 {
		bits |= instrAct0
	}
	if act1 {
		bits |= instrAct1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeReg(regINSTR, uint64(bits)); err != nil {
		return err
	}
	d.act = bits
	return nil
}

// EnableZeroCodification starts the zero codification of the reference
// counter. The reference value is available once Status reports RefLoaded.
func (d *Dev) EnableZeroCodification() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instruct(instrZCEn)
}

// ReadReference reads the 24 bit reference counter.
//
// TODO: verify against hardware that the reference registers auto-increment
// like the data file; the datasheet is not explicit about it.
func (d *Dev) ReadReference() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readReg(regREF)
	if err != nil {
		return 0, err
	}
	return int32(signExtend(raw, 24)), nil
}

// Status reads the status register of the given counter (0 to 2).
func (d *Dev) Status(counter int) (Status, error) {
	if counter < 0 || counter > 2 {
		return Status{}, fmt.Errorf("%w: no status register for counter %d", ErrProtocol, counter)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readReg(uint8(regSTATUS0 + counter))
	if err != nil {
		return Status{}, err
	}
	return decodeStatus(counter, uint8(raw)), nil
}

// instruct writes the instruction byte, carrying the sticky actuator bits
// along. d.mu must be held.
func (d *Dev) instruct(bits uint8) error {
	return d.writeReg(regINSTR, uint64(bits|d.act))
}

// readReg reads a fixed-width register, big-endian. d.mu must be held.
func (d *Dev) readReg(addr uint8) (uint64, error) {
	r, ok := regMap[addr]
	if !ok || r.access == writeOnly {
		return 0, fmt.Errorf("%w: register %#02x is not readable", ErrProtocol, addr)
	}
	cmd, resp := d.scratch[:1], d.scratch[1:1+r.width]
	cmd[0] = opRead | addr
	n, err := d.t.Tx(cmd, resp)
	if err != nil {
		return 0, fmt.Errorf("%w: read %#02x: %w", ErrBus, addr, err)
	}
	if n < r.width {
		return 0, fmt.Errorf("%w: read %#02x returned %d of %d bytes", ErrProtocol, addr, n, r.width)
	}
	var v uint64
	for _, b := range resp {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// writeReg writes a fixed-width register, big-endian. d.mu must be held.
func (d *Dev) writeReg(addr uint8, v uint64) error {
	r, ok := regMap[addr]
	if !ok || r.access == readOnly {
		return fmt.Errorf("%w: register %#02x is not writable", ErrProtocol, addr)
	}
	if v >= 1<<(8*r.width) {
		return fmt.Errorf("%w: value %#x exceeds %d byte register %#02x", ErrProtocol, v, r.width, addr)
	}
	frame := d.scratch[:1+r.width]
	frame[0] = addr
	for i := 0; i < r.width; i++ {
		frame[1+i] = uint8(v >> (8 * (r.width - 1 - i)))
	}
	if _, err := d.t.Tx(frame, nil); err != nil {
		return fmt.Errorf("%w: write %#02x: %w", ErrBus, addr, err)
	}
	return nil
}
