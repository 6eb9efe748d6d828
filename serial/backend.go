package serial

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.bug.st/serial"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

const (
	transmitQueueDepth = 4
	shutdownFlushDelay = 100 * time.Millisecond
)

// txFrame is one pending transmit unit: the frame's mode, size and RGB24
// pixels. run encodes it for the panel's protocol variant when it is
// dequeued.
type txFrame struct {
	mode   dmd.Mode
	width  int
	height int
	rgb24  []byte
}

// Backend drives one serial-attached panel. It implements dmd.Backend.
type Backend struct {
	name           string
	port           serial.Port
	logger         *log.Logger
	reset          *ResetLine
	numLogicalRows int
	colorOrder     dmd.ColorOrder

	handshakeResult handshakeResult

	qmu   sync.Mutex
	queue []txFrame
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}

	consecutiveFailures int
	deactivated         bool
}

// Open opens devicePath (or, if empty, probes every candidate serial port),
// performs the IOIO handshake, and starts the transmit worker. numLogicalRows
// configures the Adafruit bit-plane mapping for legacy-protocol panels.
func Open(devicePath string, numLogicalRows int, order dmd.ColorOrder, logger *log.Logger, reset *ResetLine) (*Backend, error) {
	if logger == nil {
		logger = log.Default()
	}

	paths := []string{devicePath}
	if devicePath == "" {
		var err error
		paths, err = candidatePorts()
		if err != nil {
			return nil, fmt.Errorf("%w: enumerate serial ports: %v", dmd.ErrBackendFatal, err)
		}
	}

	for _, path := range paths {
		b, err := openOne(path, numLogicalRows, order, logger, reset)
		if err == nil {
			return b, nil
		}
		logger.Debug("serial backend open failed, trying next candidate", "path", path, "err", err)
	}

	return nil, fmt.Errorf("%w: no serial-attached panel found", dmd.ErrBackendFatal)
}

func openOne(path string, numLogicalRows int, order dmd.ColorOrder, logger *log.Logger, reset *ResetLine) (*Backend, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return nil, err
	}

	result, err := handshake(port)
	if err != nil {
		if reset != nil {
			_ = reset.Pulse()
		}
		port.Close()
		return nil, err
	}

	b := &Backend{
		name:            path,
		port:            port,
		logger:          logger,
		reset:           reset,
		numLogicalRows:  numLogicalRows,
		colorOrder:      order,
		handshakeResult: result,
		wake:            make(chan struct{}, 1),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	if err := b.sendRaw(encodeEnableCommand(result.variant, result.width, result.height)); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: enable command: %v", dmd.ErrBackendFatal, err)
	}

	go b.run()
	return b, nil
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) NativeResolution() (int, int) {
	return b.handshakeResult.width, b.handshakeResult.height
}

func (b *Backend) SupportsColoredGrayscale() bool { return false }

func (b *Backend) RenderIndexed(width, height int, depth dmd.Depth, palette dmd.Palette, indexed []byte) error {
	rgb24 := make([]byte, 3*width*height)
	dmd.IndexedToRGB24(rgb24, indexed, palette)
	return b.enqueue(txFrame{mode: dmd.ModeIndexed, width: width, height: height, rgb24: rgb24})
}

func (b *Backend) RenderRGB24(width, height int, rgb24 []byte) error {
	return b.enqueue(txFrame{mode: dmd.ModeRGB24, width: width, height: height, rgb24: rgb24})
}

// enqueue appends to the transmit queue, dropping the oldest frame when the
// queue exceeds 4 pending entries (newest-wins backpressure).
func (b *Backend) enqueue(f txFrame) error {
	if b.isDeactivated() {
		return dmd.ErrBackendFatal
	}

	b.qmu.Lock()
	if len(b.queue) > transmitQueueDepth {
		b.queue = b.queue[1:]
	}
	b.queue = append(b.queue, f)
	b.qmu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *Backend) dequeue() (txFrame, bool) {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	if len(b.queue) == 0 {
		return txFrame{}, false
	}
	f := b.queue[0]
	b.queue = b.queue[1:]
	return f, true
}

func (b *Backend) isDeactivated() bool {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	return b.deactivated
}

// run is the transmit worker: drain one frame, encode, write it with a
// plain blocking Write (no write timeout is set on the port), recover from
// transient zero-byte writes, and deactivate after 20 consecutive failures
// or a hard write error.
func (b *Backend) run() {
	defer close(b.done)

	for {
		f, ok := b.dequeue()
		if !ok {
			select {
			case <-b.wake:
				continue
			case <-b.stop:
				return
			}
		}

		rgb565 := make([]uint16, f.width*f.height)
		rgb24ToRGB565Words(rgb565, f.rgb24)

		buf := encodeFrame(b.handshakeResult.variant, f.mode, f.width, b.numLogicalRows, b.colorOrder, rgb565, f.rgb24)

		n, err := b.port.Write(buf)
		if err != nil {
			b.logger.Error("serial write error, deactivating backend", "backend", b.name, "err", err)
			b.markDeactivated()
			return
		}
		if n == 0 {
			b.consecutiveFailures++
			if b.consecutiveFailures >= dmdMaxConsecutiveTransientFailures {
				b.logger.Error("serial backend exceeded transient failure threshold, deactivating", "backend", b.name)
				b.markDeactivated()
				return
			}
			continue
		}

		if b.consecutiveFailures > 0 {
			b.logger.Info("serial backend write restored", "backend", b.name, "after_failures", b.consecutiveFailures)
		}
		b.consecutiveFailures = 0
	}
}

const dmdMaxConsecutiveTransientFailures = 20

func (b *Backend) markDeactivated() {
	b.qmu.Lock()
	b.deactivated = true
	b.qmu.Unlock()
}

// sendRaw performs a single blocking write outside the queued worker, used
// for the enable command sent once during Open.
func (b *Backend) sendRaw(buf []byte) error {
	n, err := b.port.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return errors.New("short write")
	}
	return nil
}

// Close stops the worker, waits out the settle delay, drops DTR/RTS and
// closes the port. Pending output is not explicitly flushed or drained.
func (b *Backend) Close() error {
	close(b.stop)
	<-b.done

	time.Sleep(shutdownFlushDelay)
	_ = b.port.SetDTR(false)
	_ = b.port.SetRTS(false)
	if b.reset != nil {
		_ = b.reset.Close()
	}
	return b.port.Close()
}

func rgb24ToRGB565Words(dst []uint16, rgb24 []byte) {
	n := len(rgb24) / 3
	for i := 0; i < n; i++ {
		r, g, b := rgb24[3*i], rgb24[3*i+1], rgb24[3*i+2]
		dst[i] = (uint16(r&0xF8) << 8) | (uint16(g&0xFC) << 3) | uint16(b>>3)
	}
}
