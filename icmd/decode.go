package icmd

// Reading is one latched counter snapshot.
type Reading struct {
	// Counts holds the signed counter values, indexed by counter number.
	// Its length follows the operating mode.
	Counts []int64
	// Warn and Err mirror the chip's NWARN and NERR flags at the time of
	// the readout. They report masked internal warnings and errors; see
	// Status for the cause.
	Warn bool
	Err  bool
}

// decodeReading unpacks a counter readout. The chip sends the
// highest-numbered counter first and counter 0 last, each big-endian
// two's-complement, followed by the flag byte.
func decodeReading(m Mode, data []byte) Reading {
	widths := counterBits[m]
	counts := make([]int64, len(widths))
	off := 0
	for i, bits := range widths {
		var raw uint64
		for _, b := range data[off : off+bits/8] {
			raw = raw<<8 | uint64(b)
		}
		counts[len(widths)-1-i] = signExtend(raw, bits)
		off += bits / 8
	}
	flags := data[off]
	return Reading{
		Counts: counts,
		// The pins are active low; a cleared bit flags the condition.
		Warn: flags&flagNWARN == 0,
		Err:  flags&flagNERR == 0,
	}
}

// signExtend widens an n-bit two's-complement pattern to 64 bits by
// replicating bit n-1 into all higher bits. Widening the raw pattern as
// unsigned instead would turn counts near the negative end of the range
// into large positive values.
func signExtend(raw uint64, bits int) int64 {
	s := 64 - bits
	return int64(raw<<s) >> s
}

// encodeRaw is the inverse of signExtend: the n-bit raw pattern of v.
func encodeRaw(v int64, bits int) uint64 {
	return uint64(v) & (1<<bits - 1)
}
