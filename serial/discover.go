package serial

import (
	"github.com/jochenvg/go-udev"
	gpiocdev "github.com/warthog618/go-gpiocdev"
	"go.bug.st/serial"
)

// candidatePorts returns the device paths to try when no explicit path was
// configured: every tty reported by go.bug.st/serial's port lister, narrowed
// to the ports whose device node udev also lists in its tty subsystem. No
// USB vendor or bus check is made, so non-USB ttys known to udev stay in
// the list. Falls back to the plain port list if udev enumeration fails or
// matches none of the ports (containers, non-Linux hosts).
func candidatePorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}

	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("tty"); err != nil {
		return ports, nil
	}
	devices, err := e.Devices()
	if err != nil || len(devices) == 0 {
		return ports, nil
	}

	usbOnly := make([]string, 0, len(ports))
	known := make(map[string]bool, len(devices))
	for _, d := range devices {
		if node := d.Devnode(); node != "" {
			known[node] = true
		}
	}
	for _, p := range ports {
		if known[p] {
			usbOnly = append(usbOnly, p)
		}
	}
	if len(usbOnly) == 0 {
		return ports, nil
	}
	return usbOnly, nil
}

// ResetLine optionally pulses a GPIO line to hardware-reset the attached
// panel controller before a handshake retry, for deployments (e.g. a
// Raspberry Pi driving an IOIO board over GPIO rather than DTR alone).
type ResetLine struct {
	line *gpiocdev.Line
}

// OpenResetLine requests chipName/offset as an output line, defaulting low.
func OpenResetLine(chipName string, offset int) (*ResetLine, error) {
	line, err := gpiocdev.RequestLine(chipName, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &ResetLine{line: line}, nil
}

// Pulse drives the line high then low, matching the DTR/RTS handshake
// shape, for controllers wired to a GPIO reset instead of DTR.
func (r *ResetLine) Pulse() error {
	if err := r.line.SetValue(1); err != nil {
		return err
	}
	return r.line.SetValue(0)
}

// Close releases the GPIO line.
func (r *ResetLine) Close() error {
	return r.line.Close()
}
