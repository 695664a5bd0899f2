package gps

import (
	"context"
	"time"

	"github.com/golang/glog"
	gpsd "github.com/stratoberry/go-gpsd"
)

// DefaultGpsdAddr is where gpsd listens by default.
const DefaultGpsdAddr = gpsd.DefaultAddress

// Gpsd follows the TPV reports of a gpsd daemon.
type Gpsd struct {
	latest
	Addr string

	session *gpsd.Session
}

// DialGpsd connects to gpsd and starts watching reports.
func DialGpsd(ctx context.Context, addr string) (*Gpsd, error) {
	if addr == "" {
		addr = DefaultGpsdAddr
	}
	type dialResult struct {
		session *gpsd.Session
		err     error
	}
	resCh := make(chan dialResult, 1)
	go func() {
		s, err := gpsd.Dial(addr)
		resCh <- dialResult{s, err}
	}()
	var res dialResult
	select {
	case res = <-resCh:
	case <-ctx.Done():
		go func() {
			if res := <-resCh; res.session != nil {
				res.session.Close()
			}
		}()
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}
	g := &Gpsd{Addr: addr, session: res.session}
	g.session.AddFilter("TPV", func(r interface{}) {
		if report, ok := r.(*gpsd.TPVReport); ok {
			g.handleTPV(report)
		}
	})
	done := g.session.Watch()
	go func() {
		<-done
		glog.Warningf("gpsd %s: watch stopped", addr)
		g.invalidate()
	}()
	return g, nil
}

// Close implements io.Closer.
func (g *Gpsd) Close() error {
	g.invalidate()
	return g.session.Close()
}

// handleTPV keeps 2D and 3D fixes, any other mode loses the fix.
func (g *Gpsd) handleTPV(report *gpsd.TPVReport) {
	if report.Mode != gpsd.Mode2D && report.Mode != gpsd.Mode3D {
		g.invalidate()
		return
	}
	g.update(Fix{
		Latitude:  report.Lat,
		Longitude: report.Lon,
		Speed:     report.Speed,
		Time:      time.Now(),
	})
}
