//go:build tinygo

package icmd

import (
	"machine"

	"tinygo.org/x/drivers"
)

// MachineSPI adapts a TinyGo SPI bus and chip select pin to the Transport
// interface.
type MachineSPI struct {
	bus drivers.SPI
	cs  machine.Pin
}

// NewMachineSPI returns a driver for an iC-MD on a TinyGo SPI bus. The bus
// must be configured for mode 0 at no more than 10 MHz.
func NewMachineSPI(bus drivers.SPI, cs machine.Pin) *Dev {
	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cs.High()
	return New(&MachineSPI{bus: bus, cs: cs})
}

func (m *MachineSPI) Tx(cmd, resp []byte) (int, error) {
	m.cs.Low()
	defer m.cs.High()
	if err := m.bus.Tx(cmd, nil); err != nil {
		return 0, err
	}
	if len(resp) == 0 {
		return 0, nil
	}
	if err := m.bus.Tx(nil, resp); err != nil {
		return 0, err
	}
	return len(resp), nil
}
