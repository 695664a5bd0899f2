package gps

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/golang/glog"
	"go.bug.st/serial"
)

// DefaultBaudRate of NMEA receivers.
const DefaultBaudRate = 9600

const knotsToMetersPerSecond = 0.514444

// NMEA follows RMC sentences from a receiver.
type NMEA struct {
	latest
	Name string

	port io.ReadCloser
	done chan struct{}
}

// OpenSerial opens a serial NMEA receiver, e.g. /dev/ttyUSB0.
func OpenSerial(path string, baud int) (*NMEA, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	return NewNMEA(path, port), nil
}

// NewNMEA reads sentences from r in the background.
func NewNMEA(name string, r io.ReadCloser) *NMEA {
	n := &NMEA{Name: name, port: r, done: make(chan struct{})}
	go func() {
		defer close(n.done)
		if err := n.consume(r); err != nil {
			glog.Warningf("nmea %s: %v", name, err)
		}
		n.invalidate()
	}()
	return n
}

// Close implements io.Closer.
func (n *NMEA) Close() error {
	err := n.port.Close()
	<-n.done
	return err
}

func (n *NMEA) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		s, err := nmea.Parse(line)
		if err != nil {
			glog.V(2).Infof("nmea: skip %q: %v", line, err)
			continue
		}
		rmc, ok := s.(nmea.RMC)
		if !ok {
			continue
		}
		if rmc.Validity != nmea.ValidRMC {
			n.invalidate()
			continue
		}
		n.update(Fix{
			Latitude:  rmc.Latitude,
			Longitude: rmc.Longitude,
			Speed:     rmc.Speed * knotsToMetersPerSecond,
			Time:      time.Now(),
		})
	}
	return scanner.Err()
}
