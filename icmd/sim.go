package icmd

import (
	"errors"
	"fmt"
	"sync"
)

// Simulator models the register file of an iC-MD for tests. It implements
// Transport and keeps a record of every transaction.
type Simulator struct {
	// Drift is added to every live counter after each transaction,
	// simulating encoders that keep moving during a readout.
	Drift int64
	// Warn and Err drive the NWARN and NERR flags of counter readouts.
	Warn bool
	Err  bool
	// Limit is the maximum transaction size in bytes, 0 for none.
	Limit int
	// FailFrame makes the numbered transaction (1-based) fail with a
	// bus error, 0 for never.
	FailFrame int
	// Truncate withholds that many response bytes from every read,
	// simulating a misbehaving transport.
	Truncate int

	// Frames records every transaction performed.
	Frames []Frame

	mu     sync.Mutex
	cfg    uint8
	counts [3]int64
	ref    int32
	status [3]uint8
	shadow []byte
}

// Frame is one recorded transaction.
type Frame struct {
	Cmd  []byte
	Resp int // requested response length
}

var errSimFault = errors.New("simulated bus fault")

func NewSimulator() *Simulator {
	return &Simulator{}
}

// SetCount sets the live value of a counter. The value becomes visible to
// the driver at the next latch.
func (s *Simulator) SetCount(counter int, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[counter] = v
}

// SetRef sets the reference counter value.
func (s *Simulator) SetRef(v int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref = v
}

// SetStatus sets the raw content of a status register.
func (s *Simulator) SetStatus(counter int, raw uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[counter] = raw
}

// Latched reports the last latched readout image, nil before the first
// latch.
func (s *Simulator) Latched() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.shadow...)
}

func (s *Simulator) MaxTxSize() int {
	return s.Limit
}

func (s *Simulator) Tx(cmd, resp []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Frames = append(s.Frames, Frame{Cmd: append([]byte(nil), cmd...), Resp: len(resp)})
	defer func() {
		for i := range s.counts {
			s.counts[i] += s.Drift
		}
	}()
	if s.FailFrame > 0 && len(s.Frames) == s.FailFrame {
		return 0, errSimFault
	}
	if len(cmd) == 0 {
		return 0, errors.New("sim: empty command")
	}
	if cmd[0]&opRead != 0 {
		n, err := s.read(cmd[0]&^uint8(opRead), resp)
		if n > len(resp)-s.Truncate {
			n = max(len(resp)-s.Truncate, 0)
		}
		return n, err
	}
	return 0, s.write(cmd[0], cmd[1:])
}

func (s *Simulator) read(addr uint8, resp []byte) (int, error) {
	switch {
	case addr >= regDATA && addr < regDATA+8:
		if s.shadow == nil {
			// Reading the data file before any latch; serve a zero
			// image so the sequencing bug is visible to tests.
			s.shadow = make([]byte, dataWidth(Mode(s.cfg&0b111)))
		}
		off := int(addr - regDATA)
		if off >= len(s.shadow) {
			return 0, fmt.Errorf("sim: read beyond data file at %#02x", addr)
		}
		return copy(resp, s.shadow[off:]), nil
	case addr == regCNTCFG:
		return copy(resp, []byte{s.cfg}), nil
	case addr == regREF:
		v := uint32(s.ref)
		return copy(resp, []byte{uint8(v >> 16), uint8(v >> 8), uint8(v)}), nil
	case addr >= regSTATUS0 && addr <= regSTATUS2:
		return copy(resp, []byte{s.status[addr-regSTATUS0]}), nil
	}
	return 0, fmt.Errorf("sim: read of unknown register %#02x", addr)
}

func (s *Simulator) write(addr uint8, payload []byte) error {
	if len(payload) != 1 {
		return fmt.Errorf("sim: %d byte write to register %#02x", len(payload), addr)
	}
	switch addr {
	case regCNTCFG:
		s.cfg = payload[0]
		return nil
	case regINSTR:
		s.instruct(payload[0])
		return nil
	}
	return fmt.Errorf("sim: write to unknown register %#02x", addr)
}

func (s *Simulator) instruct(bits uint8) {
	if bits&instrAbRes0 != 0 {
		s.counts[0] = 0
	}
	if bits&instrAbRes1 != 0 {
		s.counts[1] = 0
	}
	if bits&instrAbRes2 != 0 {
		s.counts[2] = 0
	}
	if bits&instrTP != 0 {
		s.latch()
	}
}

// latch freezes the live counters into the readout image, wire order:
// highest-numbered counter first, flag byte last.
func (s *Simulator) latch() {
	m := Mode(s.cfg & 0b111)
	widths := counterBits[m]
	img := make([]byte, 0, dataWidth(m))
	for i, bits := range widths {
		raw := encodeRaw(s.counts[len(widths)-1-i], bits)
		for b := bits - 8; b >= 0; b -= 8 {
			img = append(img, uint8(raw>>b))
		}
	}
	flags := uint8(flagNERR | flagNWARN)
	if s.Warn {
		flags &^= flagNWARN
	}
	if s.Err {
		flags &^= flagNERR
	}
	s.shadow = append(img, flags)
}
