package hardware

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

// toggleMarker is the line the RFID board prints once per card tap.
const toggleMarker = "RFID_TOGGLE"

// RFIDReader listens on the RFID board's serial device for tap events. A
// background goroutine owns the blocking reads; taps are buffered so a tap
// between polls is not lost.
type RFIDReader struct {
	file   *os.File
	toggle chan struct{}
}

// OpenRFID opens the serial device and starts the read loop.
func OpenRFID(path string) (*RFIDReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rfid port %s: %w", path, err)
	}
	r := &RFIDReader{
		file:   f,
		toggle: make(chan struct{}, 8),
	}
	go r.readLoop()
	return r, nil
}

func (r *RFIDReader) readLoop() {
	scanner := bufio.NewScanner(r.file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		log.Printf("[rfid] %s", line)
		if line != toggleMarker {
			continue
		}
		select {
		case r.toggle <- struct{}{}:
		default:
			// A tap is already buffered; extra taps within one poll
			// window collapse into it.
		}
	}
	close(r.toggle)
}

// WaitForToggle blocks until the next tap, the port closing, or ctx
// cancellation.
func (r *RFIDReader) WaitForToggle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-r.toggle:
		if !ok {
			return fmt.Errorf("rfid port closed")
		}
		return nil
	}
}

// Toggled reports without blocking whether a tap arrived since the last
// check.
func (r *RFIDReader) Toggled() bool {
	select {
	case _, ok := <-r.toggle:
		return ok
	default:
		return false
	}
}

// Close releases the serial device, which also ends the read loop.
func (r *RFIDReader) Close() error {
	return r.file.Close()
}
