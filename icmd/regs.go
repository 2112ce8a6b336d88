package icmd

// Register map, from the iC-MD datasheet. The read opcode is the register
// address with the MSB set; a write sends the bare address followed by the
// payload. Multi-byte registers are big-endian on the wire and the address
// auto-increments across the data register file.
const (
	regCNTCFG  = 0x00 // counter configuration
	regDATA    = 0x08 // latched counter readout, width depends on CNTCFG
	regREF     = 0x10 // reference counter, 24 bit
	regINSTR   = 0x30 // instruction byte
	regSTATUS0 = 0x48
	regSTATUS1 = 0x49
	regSTATUS2 = 0x4a

	opRead = 0x80
)

// Instruction byte bits. All bits except act0 and act1 self-clear;
// act0 and act1 are sticky and must be re-asserted on every write.
const (
	instrAbRes0 = 1 << 0 // reset counter 0
	instrAbRes1 = 1 << 1 // reset counter 1
	instrAbRes2 = 1 << 2 // reset counter 2
	instrZCEn   = 1 << 3 // enable zero codification
	instrTP     = 1 << 4 // latch the counters into the touch probe registers
	instrAct0   = 1 << 5 // drive actuator pin 0
	instrAct1   = 1 << 6 // drive actuator pin 1
)

type access uint8

const (
	readOnly access = iota
	writeOnly
	readWrite
)

// regInfo describes a fixed-width register. The counter data register is
// absent; its width follows the configured counter mode.
type regInfo struct {
	width  int // bytes
	access access
}

var regMap = map[uint8]regInfo{
	regCNTCFG:  {1, readWrite},
	regREF:     {3, readOnly},
	regINSTR:   {1, writeOnly},
	regSTATUS0: {1, readOnly},
	regSTATUS1: {1, readOnly},
	regSTATUS2: {1, readOnly},
}

// counterBits lists the counter widths per mode in wire order. The chip
// transmits the highest-numbered counter first and counter 0 last, followed
// by one flag byte carrying NERR and NWARN.
var counterBits = [8][]int{
	Cnt1x24:    {24},
	Cnt2x24:    {24, 24},
	Cnt1x48:    {48},
	Cnt1x16:    {16},
	Cnt1x32:    {32},
	Cnt32And16: {32, 16},
	Cnt2x16:    {16, 16},
	Cnt3x16:    {16, 16, 16},
}

// Flag bits in the trailing byte of a counter readout. The pins are
// active low: a cleared bit signals the condition.
const (
	flagNWARN = 1 << 6
	flagNERR  = 1 << 7
)

// dataWidth returns the counter readout width in bytes for mode m,
// including the trailing flag byte.
func dataWidth(m Mode) int {
	w := 1
	for _, bits := range counterBits[m] {
		w += bits / 8
	}
	return w
}
