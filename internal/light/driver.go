package light

// Driver is the register-level controller a Light drives. *pca9685.Device
// satisfies it.
type Driver interface {
	SetSleep(active bool) error
	SetFrequency(hz float64) error
	SetChannel(channel int, duty float64) error
	SetAllChannels(duty float64) error
	SetColor(r, g, b float64) error
}
