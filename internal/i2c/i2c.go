// Package i2c provides the register-level I2C transport used by the PWM
// driver: a small Conn abstraction with a Linux /dev/i2c-* backend and a
// periph.io backend, and a Dev handle bound to a single 7-bit address.
package i2c

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendDevfs  = "devfs"
	BackendPeriph = "periph"
)

// GeneralCallAddr is the reserved broadcast address used for software reset.
const GeneralCallAddr = 0x00

// Conn is an opened I2C bus capable of a combined write+read transaction.
//
// Conn is not safe for concurrent transfers; coordinate at a higher level.
type Conn interface {
	Tx(addr uint16, w, r []byte) error
	Close() error
	String() string
}

// Open opens a bus using the named backend. For devfs the name is a device
// path such as /dev/i2c-1; for periph it is a bus name or number ("" picks
// the first bus registered).
func Open(backend, name string) (Conn, error) {
	switch backend {
	case "", BackendDevfs:
		return OpenDevfs(name)
	case BackendPeriph:
		return OpenPeriph(name)
	default:
		return nil, fmt.Errorf("i2c: unknown backend %q", backend)
	}
}

// ParseAddr parses a 7-bit device address written in decimal, hex ("0x40")
// or octal. The general call address is not accepted.
func ParseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("i2c: invalid address %q: %w", s, err)
	}
	if v == GeneralCallAddr || v > 0x7F {
		return 0, fmt.Errorf("i2c: address %#02x outside 0x01-0x7f", v)
	}
	return uint16(v), nil
}

// Dev represents a device at a 7-bit I2C address on a Conn.
type Dev struct {
	conn      Conn
	addr      uint16
	broadcast bool
}

// NewDev binds addr on conn. Address 0x00 is rejected at transfer time; use
// GeneralCall for broadcast writes.
func NewDev(conn Conn, addr uint16) *Dev {
	if conn == nil {
		return nil
	}
	return &Dev{conn: conn, addr: addr}
}

// GeneralCall returns a write-only handle on the general call address.
func GeneralCall(conn Conn) *Dev {
	if conn == nil {
		return nil
	}
	return &Dev{conn: conn, addr: GeneralCallAddr, broadcast: true}
}

func (d *Dev) Write(p []byte) error {
	return d.tx(p, nil)
}

func (d *Dev) WriteRead(w, r []byte) error {
	return d.tx(w, r)
}

func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.WriteRead([]byte{reg}, dst)
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteReg performs a single register-address-then-data write.
func (d *Dev) WriteReg(reg, value byte) error {
	return d.Write([]byte{reg, value})
}

func (d *Dev) tx(w, r []byte) error {
	if d == nil || d.conn == nil {
		return errors.New("i2c device is nil")
	}
	if d.addr > 0x7F || (d.addr == GeneralCallAddr && !d.broadcast) {
		return fmt.Errorf("invalid i2c addr 0x%X", d.addr)
	}
	if d.broadcast && len(r) > 0 {
		return errors.New("i2c: general call is write-only")
	}
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	return d.conn.Tx(d.addr, w, r)
}
