package pca9685

import "time"

// DefaultAddress is the factory I2C address with all A0..A5 pins low.
const DefaultAddress = 0x40

// Register map. LEDn registers are split into 2 x 8-bit halves; channel N
// lives at RegLED0OnL + 4*N.
const (
	RegMode1      = 0x00
	RegMode2      = 0x01
	RegLED0OnL    = 0x06
	RegLED0OnH    = 0x07
	RegLED0OffL   = 0x08
	RegLED0OffH   = 0x09
	RegAllLEDOnL  = 0xFA
	RegAllLEDOnH  = 0xFB
	RegAllLEDOffL = 0xFC
	RegAllLEDOffH = 0xFD
	RegPrescale   = 0xFE
)

// MODE1 bits.
const (
	Mode1AllCall = 0x01
	Mode1Sleep   = 0x10
)

// SoftwareReset is the SWRST command byte written to the general call address.
const SoftwareReset = 0x06

const (
	// Channels is the number of PWM outputs on the chip.
	Channels = 16

	// MaxDuty is the off tick written for duty 1.0. Writing the full 4095
	// makes the chip misbehave; 3900 is roughly 0.95 of the period.
	MaxDuty = 3900

	// OscillatorHz is the internal oscillator frequency.
	OscillatorHz = 25_000_000

	// Resolution is the number of ticks per PWM period.
	Resolution = 4096

	PrescaleMin = 4
	PrescaleMax = 255

	// SleepSettle is how long the oscillator needs after a MODE1 sleep change.
	SleepSettle = 5 * time.Millisecond
)

// Physical channel wiring of a DIODER strip: green and blue are swapped
// relative to RGB order.
const (
	ChannelRed   = 0
	ChannelBlue  = 1
	ChannelGreen = 2
)
