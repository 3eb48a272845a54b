package sharpmem

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
)

// RPIOPin is a Raspberry Pi GPIO line driven through go-rpio's memory mapped registers.
//
// It is considerably faster than the periph.io sysfs/character device path, which matters for a
// bit-banged bus. rpio.Open must be called before use.
type RPIOPin rpio.Pin

// NewRPIOPin configures BCM pin n as an output.
func NewRPIOPin(n int) RPIOPin {
	pin := rpio.Pin(n)
	pin.Output()
	return RPIOPin(pin)
}

func (p RPIOPin) Out(level gpio.Level) error {
	rpio.Pin(p).Write(rpioState(level))
	return nil
}

func (p RPIOPin) String() string {
	return fmt.Sprintf("rpio GPIO%d", uint8(p))
}

func rpioState(level gpio.Level) rpio.State {
	if level {
		return rpio.High
	}
	return rpio.Low
}
