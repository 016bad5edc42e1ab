//go:build !linux

package i2c

import "fmt"

// OpenDevfs is only available on Linux.
func OpenDevfs(path string) (Conn, error) {
	return nil, fmt.Errorf("i2c: devfs backend unsupported on this OS (need linux), path=%s", path)
}
