package icmd

// Status is the decoded content of one of the three status registers.
// The upper four bits mean the same in every register; the lower four
// differ per counter, so only the fields for the queried counter are
// meaningful.
type Status struct {
	// Common to all three registers.
	PowerDown bool // the supply dropped and the chip reinitialized
	Zero      bool // the counter reached zero
	Overflow  bool // the counter overflowed
	ABError   bool // AB decode error, input edges too close together

	// Counter 0 only.
	TouchProbeLoaded bool // the touch probe registers hold new values
	RefOverflow      bool // too many edges between index pulses, REF and UPD invalid
	UpdateLoaded     bool // the UPD register was loaded since last read
	RefLoaded        bool // zero codification completed and REF is valid

	// Counter 1 only.
	TouchProbeSignal bool // level of the TPI input pin

	// Counter 2 only.
	SSIEnabled bool // the SSI interface is enabled (SLI pin open)

	// Counters 1 and 2 only.
	Collision bool // a communication collision took place
	ExtWarn   bool // the NWARN pin is pulled low, externally or by a masked warning
	ExtErr    bool // the NERR pin is pulled low, externally or by a masked error
}

func decodeStatus(counter int, raw uint8) Status {
	s := Status{
		PowerDown: raw&(1<<4) != 0,
		Zero:      raw&(1<<5) != 0,
		Overflow:  raw&(1<<6) != 0,
		ABError:   raw&(1<<7) != 0,
	}
	switch counter {
	case 0:
		s.TouchProbeLoaded = raw&(1<<0) != 0
		s.RefOverflow = raw&(1<<1) != 0
		s.UpdateLoaded = raw&(1<<2) != 0
		s.RefLoaded = raw&(1<<3) != 0
	case 1, 2:
		if counter == 1 {
			s.TouchProbeSignal = raw&(1<<0) != 0
		} else {
			s.SSIEnabled = raw&(1<<0) != 0
		}
		s.Collision = raw&(1<<1) != 0
		s.ExtWarn = raw&(1<<2) != 0
		s.ExtErr = raw&(1<<3) != 0
	}
	return s
}
