package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/smazurov/dioder/internal/light"
	"github.com/smazurov/dioder/internal/logging"
	"github.com/smazurov/dioder/internal/pca9685"
	"github.com/spf13/cobra"
)

// Device is what the one-shot commands need to reach the chip.
type Device struct {
	Name        string
	Backend     string
	Bus         string
	Address     uint16
	FrequencyHz float64
}

// DeviceFunc returns the device settings once the root options are parsed.
type DeviceFunc func() (Device, error)

// openDriver is replaced in tests.
var openDriver = light.OpenDriver

// CreateColorCmd creates the color command.
func CreateColorCmd(device DeviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "color <red> <green> <blue>",
		Short: "Turn the strip on with a color",
		Long:  `Programs the PWM frequency, wakes the controller and drives the red, green and blue channels. Each component is 0-255.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rgb [3]uint8
			for i, arg := range args {
				v, err := strconv.ParseUint(arg, 10, 8)
				if err != nil {
					return fmt.Errorf("color component %q: must be 0-255", arg)
				}
				rgb[i] = uint8(v)
			}

			return withLight(cmd, device, func(l *light.Light) error {
				state, err := l.TurnOn(light.TurnOnOptions{RGB: &rgb})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s on rgb(%d, %d, %d)\n", state.Name, state.RGB[0], state.RGB[1], state.RGB[2])
				return nil
			})
		},
	}
}

// CreateOffCmd creates the off command.
func CreateOffCmd(device DeviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "off",
		Short: "Turn the strip off",
		Long:  `Sets every channel to zero duty and puts the controller to sleep.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLight(cmd, device, func(l *light.Light) error {
				state, err := l.TurnOff()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s off\n", state.Name)
				return nil
			})
		},
	}
}

// CreateChannelCmd creates the channel command.
func CreateChannelCmd(device DeviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "channel <channel> <duty>",
		Short: "Set the raw duty cycle of one PWM channel",
		Long:  `Writes a duty cycle between 0 and 1 to a single channel (0-15) and leaves the controller awake.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := strconv.Atoi(args[0])
			if err != nil || channel < 0 || channel >= pca9685.Channels {
				return fmt.Errorf("channel %q: must be 0-%d", args[0], pca9685.Channels-1)
			}
			duty, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("duty %q: %w", args[1], err)
			}
			ticks, ok := pca9685.DutyTicks(duty)
			if !ok {
				return fmt.Errorf("duty %v: must be between 0 and 1", duty)
			}

			return withDriver(cmd, device, func(d light.Driver, dev Device) error {
				// SetFrequency ends with the chip awake.
				if err := d.SetFrequency(dev.FrequencyHz); err != nil {
					return err
				}
				if err := d.SetChannel(channel, duty); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "channel %d duty %.4f (%d ticks)\n", channel, duty, ticks)
				return nil
			})
		},
	}
}

// CreateFrequencyCmd creates the frequency command.
func CreateFrequencyCmd(device DeviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "frequency <hz>",
		Short: "Program the PWM base frequency",
		Long:  `Reprograms the prescaler. The controller is put to sleep for the write and woken afterwards.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hz, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("frequency %q: %w", args[0], err)
			}
			prescale, ok := pca9685.Prescale(hz)
			if !ok {
				return fmt.Errorf("frequency %v Hz: prescale outside %d-%d", hz, pca9685.PrescaleMin, pca9685.PrescaleMax)
			}

			return withDriver(cmd, device, func(d light.Driver, _ Device) error {
				if err := d.SetFrequency(hz); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "frequency %v Hz (prescale %d)\n", hz, prescale)
				return nil
			})
		},
	}
}

func withDriver(cmd *cobra.Command, device DeviceFunc, fn func(light.Driver, Device) error) error {
	dev, err := device()
	if err != nil {
		return err
	}
	if dev.FrequencyHz == 0 {
		dev.FrequencyHz = light.DefaultFrequencyHz
	}

	logger := logging.GetLogger("cli")
	driver, closer, err := openDriver(dev.Backend, dev.Bus, dev.Address, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(closer, logger)

	cmd.SilenceUsage = true
	return fn(driver, dev)
}

func withLight(cmd *cobra.Command, device DeviceFunc, fn func(*light.Light) error) error {
	return withDriver(cmd, device, func(d light.Driver, dev Device) error {
		l, err := light.New(d, light.Config{Name: dev.Name, FrequencyHz: dev.FrequencyHz}, nil, logging.GetLogger("light"))
		if err != nil {
			return err
		}
		return fn(l)
	})
}

func closeQuietly(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close i2c bus", "error", err)
	}
}
