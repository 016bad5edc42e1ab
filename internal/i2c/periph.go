package i2c

import (
	"fmt"
	"sync"

	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	periphOnce    sync.Once
	periphInitErr error
)

type periphBus struct {
	bus periphi2c.BusCloser
}

// OpenPeriph opens a bus through periph.io's host drivers. The host registry
// is initialized once per process.
func OpenPeriph(name string) (Conn, error) {
	periphOnce.Do(func() {
		_, periphInitErr = host.Init()
	})
	if periphInitErr != nil {
		return nil, fmt.Errorf("i2c: periph host init: %w", periphInitErr)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c: open periph bus %q: %w", name, err)
	}
	return &periphBus{bus: b}, nil
}

func (p *periphBus) Tx(addr uint16, w, r []byte) error {
	return p.bus.Tx(addr, w, r)
}

func (p *periphBus) Close() error { return p.bus.Close() }

func (p *periphBus) String() string { return p.bus.String() }
