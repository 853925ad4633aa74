// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the raw switch line level once per poll tick.
type Reader interface {
	// Read returns the raw line level (true = high). No polarity
	// interpretation or debouncing happens here; the value may bounce.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the switch input line (BCM numbering).
const DefaultPin = 26
