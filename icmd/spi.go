package icmd

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SPI adapts a periph.io SPI connection to the Transport interface. The
// chip select is asserted for the whole transaction by the port driver.
type SPI struct {
	conn spi.Conn
	buf  [16]byte
}

// NewSPI returns a driver for an iC-MD behind the given SPI port. The chip
// speaks SPI mode 0 at up to 10 MHz.
func NewSPI(p spi.Port) (*Dev, error) {
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("icmd: %w", err)
	}
	return New(&SPI{conn: c}), nil
}

func (s *SPI) Tx(cmd, resp []byte) (int, error) {
	if len(resp) == 0 {
		return 0, s.conn.Tx(cmd, nil)
	}
	// The connection is full duplex: pad the command with don't-care
	// bytes and pick the response out of the tail of the receive buffer.
	n := len(cmd) + len(resp)
	var w, r []byte
	if 2*n <= len(s.buf) {
		w, r = s.buf[:n], s.buf[n:2*n]
	} else {
		w, r = make([]byte, n), make([]byte, n)
	}
	copy(w, cmd)
	for i := len(cmd); i < n; i++ {
		w[i] = 0
	}
	if err := s.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return copy(resp, r[len(cmd):]), nil
}

// MaxTxSize reports the transaction size limit of the underlying port, or 0
// if it has none. It implements conn.Limits.
func (s *SPI) MaxTxSize() int {
	if l, ok := s.conn.(interface{ MaxTxSize() int }); ok {
		return l.MaxTxSize()
	}
	return 0
}
