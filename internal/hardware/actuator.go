package hardware

import (
	"fmt"
	"os"
	"time"
)

// Divider angles per box on the carousel.
var boxAngles = map[int64]int{1: 0, 2: 120, 3: 240}

// Release motion endpoints for the collection gate.
const (
	gateOpen   = 180
	gateClosed = 0
)

// SerialActuator drives the motor controller over a serial device file with
// single-line commands: 'D<angle>' positions the box divider, 'C<angle>'
// moves the collection gate. Commands are fire-and-forget; the controller
// does not acknowledge. The port must already be configured raw at 115200
// (a udev rule or stty at boot handles that).
type SerialActuator struct {
	Path       string
	SettleWait time.Duration
}

func NewSerialActuator(path string) *SerialActuator {
	return &SerialActuator{Path: path, SettleWait: time.Second}
}

// SelectBox positions the divider for the given box, unknown boxes home it.
func (a *SerialActuator) SelectBox(boxID int64) error {
	return a.send('D', boxAngles[boxID])
}

// ReleasePill runs one open/close cycle of the collection gate.
func (a *SerialActuator) ReleasePill() error {
	if err := a.send('C', gateOpen); err != nil {
		return err
	}
	a.settle()
	if err := a.send('C', gateClosed); err != nil {
		return err
	}
	a.settle()
	return nil
}

// Home returns the divider to its rest position.
func (a *SerialActuator) Home() error {
	return a.send('D', 0)
}

func (a *SerialActuator) send(label byte, angle int) error {
	f, err := os.OpenFile(a.Path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open motor port %s: %w", a.Path, err)
	}
	defer f.Close()

	if _, err := f.Write(command(label, angle)); err != nil {
		return fmt.Errorf("write motor command %c%d: %w", label, angle, err)
	}
	return nil
}

func command(label byte, angle int) []byte {
	return []byte(fmt.Sprintf("%c%d\n", label, angle))
}

func (a *SerialActuator) settle() {
	if a.SettleWait > 0 {
		time.Sleep(a.SettleWait)
	}
}
