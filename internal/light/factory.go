package light

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/smazurov/dioder/internal/i2c"
	"github.com/smazurov/dioder/internal/pca9685"
)

// BackendNoop selects a driver that only logs, for hosts without a chip.
const BackendNoop = "noop"

// OpenDriver opens the i2c bus with the given backend and initializes the
// PCA9685 at addr. The returned closer releases the bus.
func OpenDriver(backend, bus string, addr uint16, logger *slog.Logger) (Driver, io.Closer, error) {
	if backend == BackendNoop {
		if logger != nil {
			logger.Info("Using no-op light driver")
		}
		return newNoop(logger), io.NopCloser(nil), nil
	}

	conn, err := i2c.Open(backend, bus)
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c bus: %w", err)
	}

	if logger != nil {
		logger.Info("Opened i2c bus", "backend", backend, "bus", conn.String(), "address", fmt.Sprintf("0x%02X", addr))
	}

	dev, err := pca9685.New(conn, addr, pca9685.WithLogger(logger))
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return dev, conn, nil
}
