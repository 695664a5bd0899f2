// Package rsu implements the roadside unit: after registering the
// PSID with WME it broadcasts the detector telemetry with its position
// every cycle.
package rsu

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/comm"
	fx "github.com/robotalks/v2x.go/pkg/framework"
	"github.com/robotalks/v2x.go/pkg/geo"
	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/logfile"
	"github.com/robotalks/v2x.go/pkg/metrics"
	"github.com/robotalks/v2x.go/pkg/telemetry"
	"github.com/robotalks/v2x.go/pkg/wave/wme"
	"github.com/robotalks/v2x.go/pkg/wave/wsmp"
)

// Publisher is the RSU data loop.
type Publisher struct {
	Subscriber  *wme.Subscriber
	Transmitter comm.Transmitter
	GPS         gps.Provider
	Telemetry   telemetry.Source
	Log         *logfile.Writer
	AppName     string
	Profile     wsmp.TransmitProfile
	Interval    time.Duration
	SeedOrigin  bool

	track *geo.Track
}

// CycleResult describes one publish cycle.
type CycleResult struct {
	// Skipped is the reason when nothing was transmitted.
	Skipped     string
	Fix         gps.Fix
	Heading     float64
	HasHeading  bool
	Text        string
	Packet      []byte
	Transmitted bool
}

// Name implements Named.
func (p *Publisher) Name() string {
	return "rsu"
}

// Run implements Runnable. The WME handshake must succeed before the
// loop starts, its failure stops the publisher.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Subscriber.Subscribe(ctx, p.Profile.PSID, p.AppName, wme.ActionAdd); err != nil {
		return err
	}
	return fx.NewLoop(p.Name(), p.Interval, fx.CyclerFunc(func(ctx context.Context) error {
		_, err := p.RunCycle(ctx)
		return err
	})).Run(ctx)
}

// RunCycle performs one cycle: position, heading, telemetry, encode,
// transmit and log. A cycle without fix is skipped.
func (p *Publisher) RunCycle(ctx context.Context) (res CycleResult, err error) {
	start := time.Now()
	defer metrics.ObserveCycle(start)

	if p.track == nil {
		p.track = geo.NewTrack(p.SeedOrigin)
	}

	fix, err := p.GPS.Fix(ctx)
	if err != nil {
		if errors.Is(err, gps.ErrNoFix) {
			glog.V(1).Info("no position fix, skip cycle")
			metrics.Skipped.WithLabelValues(metrics.ReasonNoFix).Inc()
			res.Skipped = metrics.ReasonNoFix
			return res, nil
		}
		metrics.Skipped.WithLabelValues(metrics.ReasonGPSError).Inc()
		res.Skipped = metrics.ReasonGPSError
		return res, err
	}
	res.Fix = fix

	here := geo.Point{Lat: fix.Latitude, Lon: fix.Longitude}
	p.track.Add(here)
	if res.Heading, res.HasHeading = p.track.Heading(); res.HasHeading {
		metrics.Heading.Set(res.Heading)
	}
	if glog.V(2) {
		pos := here.Cartesian()
		glog.Infof("position (%.4f, %.4f, %.4f) heading %.2f (%v)", pos.X, pos.Y, pos.Z, res.Heading, res.HasHeading)
	}

	rec, err := p.Telemetry.Latest(ctx)
	if err != nil {
		glog.Warningf("telemetry: %v", err)
		rec = nil
	} else if rec.Malformed {
		glog.Warningf("telemetry record %s has missing fields", rec.SerialNumber)
	}
	res.Text = telemetry.ApplicationText(rec, fix)
	glog.V(1).Infof("application data: %s", res.Text)

	if res.Packet, err = wsmp.Build(res.Text, p.Profile); err != nil {
		metrics.Skipped.WithLabelValues(metrics.ReasonBuildError).Inc()
		res.Skipped = metrics.ReasonBuildError
		return res, err
	}

	if err = p.Transmitter.Transmit(ctx, res.Packet); err != nil {
		metrics.TransmitErrors.Inc()
		return res, err
	}
	res.Transmitted = true
	metrics.Transmitted.Inc()

	if err := p.Log.Append(res.Text); err != nil {
		glog.Errorf("append %s: %v", p.Log.Path, err)
	}
	return res, nil
}
