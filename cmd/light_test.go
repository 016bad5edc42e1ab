package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/smazurov/dioder/internal/light"
	"github.com/spf13/cobra"
)

type recordingDriver struct {
	ops []string
}

func (r *recordingDriver) SetSleep(active bool) error {
	r.ops = append(r.ops, fmt.Sprintf("sleep(%v)", active))
	return nil
}

func (r *recordingDriver) SetFrequency(hz float64) error {
	r.ops = append(r.ops, fmt.Sprintf("frequency(%g)", hz))
	return nil
}

func (r *recordingDriver) SetChannel(channel int, duty float64) error {
	r.ops = append(r.ops, fmt.Sprintf("channel(%d,%g)", channel, duty))
	return nil
}

func (r *recordingDriver) SetAllChannels(duty float64) error {
	r.ops = append(r.ops, fmt.Sprintf("all(%g)", duty))
	return nil
}

func (r *recordingDriver) SetColor(red, green, blue float64) error {
	r.ops = append(r.ops, fmt.Sprintf("color(%.3f,%.3f,%.3f)", red, green, blue))
	return nil
}

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

// stubDriver swaps openDriver for the duration of the test.
func stubDriver(t *testing.T) (*recordingDriver, *closeCounter, *Device) {
	t.Helper()
	drv := &recordingDriver{}
	closer := &closeCounter{}
	opened := &Device{}

	orig := openDriver
	openDriver = func(backend, bus string, addr uint16, _ *slog.Logger) (light.Driver, io.Closer, error) {
		*opened = Device{Backend: backend, Bus: bus, Address: addr}
		return drv, closer, nil
	}
	t.Cleanup(func() { openDriver = orig })
	return drv, closer, opened
}

func testDevice() (Device, error) {
	return Device{Backend: "devfs", Bus: "/dev/i2c-1", Address: 0x40, FrequencyHz: 1000}, nil
}

func runCmd(c *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func equalOps(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("ops = %v, want %v", got, want)
	}
}

func TestColorCmd(t *testing.T) {
	drv, closer, opened := stubDriver(t)

	out, err := runCmd(CreateColorCmd(testDevice), "255", "0", "51")
	if err != nil {
		t.Fatalf("color: %v", err)
	}

	if *opened != (Device{Backend: "devfs", Bus: "/dev/i2c-1", Address: 0x40}) {
		t.Errorf("opened %+v", *opened)
	}
	equalOps(t, drv.ops, []string{
		"frequency(1000)", "sleep(true)",
		"sleep(false)", "color(1.000,0.000,0.200)",
	})
	if closer.closed != 1 {
		t.Errorf("bus closed %d times, want 1", closer.closed)
	}
	if !strings.Contains(out, "rgb(255, 0, 51)") {
		t.Errorf("output = %q", out)
	}
}

func TestColorCmd_RejectsBadComponent(t *testing.T) {
	for _, args := range [][]string{
		{"256", "0", "0"},
		{"-1", "0", "0"},
		{"red", "0", "0"},
		{"1", "2"},
	} {
		t.Run(strings.Join(args, ","), func(t *testing.T) {
			drv, _, _ := stubDriver(t)
			if _, err := runCmd(CreateColorCmd(testDevice), args...); err == nil {
				t.Fatal("expected error")
			}
			if len(drv.ops) != 0 {
				t.Errorf("driver touched: %v", drv.ops)
			}
		})
	}
}

func TestOffCmd(t *testing.T) {
	drv, closer, _ := stubDriver(t)

	out, err := runCmd(CreateOffCmd(testDevice))
	if err != nil {
		t.Fatalf("off: %v", err)
	}
	equalOps(t, drv.ops, []string{
		"frequency(1000)", "sleep(true)",
		"all(0)", "sleep(true)",
	})
	if closer.closed != 1 {
		t.Errorf("bus closed %d times, want 1", closer.closed)
	}
	if out != "PiDioder off\n" {
		t.Errorf("output = %q", out)
	}
}

func TestChannelCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOps []string
		wantErr bool
	}{
		{"half duty", []string{"3", "0.5"}, []string{"frequency(1000)", "channel(3,0.5)"}, false},
		{"last channel", []string{"15", "1"}, []string{"frequency(1000)", "channel(15,1)"}, false},
		{"duty above one", []string{"0", "1.5"}, nil, true},
		{"negative duty", []string{"0", "-0.1"}, nil, true},
		{"channel 16", []string{"16", "0.5"}, nil, true},
		{"not a number", []string{"x", "0.5"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, _, _ := stubDriver(t)
			_, err := runCmd(CreateChannelCmd(testDevice), tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			equalOps(t, drv.ops, tt.wantOps)
		})
	}
}

func TestFrequencyCmd(t *testing.T) {
	drv, _, _ := stubDriver(t)

	out, err := runCmd(CreateFrequencyCmd(testDevice), "200")
	if err != nil {
		t.Fatalf("frequency: %v", err)
	}
	equalOps(t, drv.ops, []string{"frequency(200)"})
	if !strings.Contains(out, "prescale 29") {
		t.Errorf("output = %q", out)
	}
}

func TestFrequencyCmd_OutOfRange(t *testing.T) {
	for _, hz := range []string{"5000", "10", "0"} {
		t.Run(hz, func(t *testing.T) {
			drv, _, _ := stubDriver(t)
			if _, err := runCmd(CreateFrequencyCmd(testDevice), hz); err == nil {
				t.Fatal("expected error")
			}
			if len(drv.ops) != 0 {
				t.Errorf("driver touched: %v", drv.ops)
			}
		})
	}
}

func TestDeviceErrors(t *testing.T) {
	stubDriver(t)
	failing := func() (Device, error) { return Device{}, errors.New("bad address") }

	if _, err := runCmd(CreateOffCmd(failing)); err == nil || !strings.Contains(err.Error(), "bad address") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenDriverError(t *testing.T) {
	orig := openDriver
	openDriver = func(string, string, uint16, *slog.Logger) (light.Driver, io.Closer, error) {
		return nil, nil, errors.New("no such device")
	}
	t.Cleanup(func() { openDriver = orig })

	if _, err := runCmd(CreateOffCmd(testDevice)); err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultFrequency(t *testing.T) {
	drv, _, _ := stubDriver(t)
	noFreq := func() (Device, error) { return Device{Backend: "noop"}, nil }

	if _, err := runCmd(CreateChannelCmd(noFreq), "0", "0"); err != nil {
		t.Fatal(err)
	}
	equalOps(t, drv.ops, []string{"frequency(1000)", "channel(0,0)"})
}
