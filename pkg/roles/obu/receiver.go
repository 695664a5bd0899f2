// Package obu implements the onboard unit: after registering the PSID
// with WME it classifies every message broadcast by the RSU.
package obu

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/diag"
	fx "github.com/robotalks/v2x.go/pkg/framework"
	"github.com/robotalks/v2x.go/pkg/geo"
	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/logfile"
	"github.com/robotalks/v2x.go/pkg/metrics"
	"github.com/robotalks/v2x.go/pkg/wave/appdata"
	"github.com/robotalks/v2x.go/pkg/wave/wme"
	"github.com/robotalks/v2x.go/pkg/wave/wsmp"
)

// Receiver is the OBU data loop.
type Receiver struct {
	Subscriber   *wme.Subscriber
	Subscription comm.Subscription
	GPS          gps.Provider
	Diag         *diag.Publisher
	Log          *logfile.Writer
	StationID    string
	PSID         uint32
	AppName      string
	Reference    geo.Point
	RecvTimeout  time.Duration
}

// Outcome describes how a received message was handled.
type Outcome struct {
	// Skipped is the reason when the message wasn't classified.
	Skipped    string
	Message    *wsmp.Message
	DistanceKm float64
	Detected   bool
	Line       string
}

// Name implements Named.
func (r *Receiver) Name() string {
	return "obu"
}

// Run implements Runnable. The WME handshake must succeed before
// receiving starts, its failure stops the receiver.
func (r *Receiver) Run(ctx context.Context) error {
	if err := r.Subscriber.Subscribe(ctx, r.PSID, r.AppName, wme.ActionAdd); err != nil {
		return err
	}
	return fx.NewLoop(r.Name(), 0, fx.CyclerFunc(r.receive)).Run(ctx)
}

func (r *Receiver) receive(ctx context.Context) error {
	recvCtx := ctx
	if r.RecvTimeout > 0 {
		var cancel context.CancelFunc
		recvCtx, cancel = context.WithTimeout(ctx, r.RecvTimeout)
		defer cancel()
	}
	msg, err := r.Subscription.Receive(recvCtx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, comm.ErrClosed):
			return fx.Fatal(err)
		case errors.Is(err, context.DeadlineExceeded):
			glog.V(1).Infof("no message within %s", r.RecvTimeout)
			metrics.ReceiveErrors.Inc()
			return nil
		}
		metrics.ReceiveErrors.Inc()
		return err
	}
	_, err = r.HandleMessage(ctx, msg)
	return err
}

func (r *Receiver) skip(reason string) (Outcome, error) {
	metrics.Skipped.WithLabelValues(reason).Inc()
	return Outcome{Skipped: reason}, nil
}

// HandleMessage processes one received message: topic acknowledgements,
// messages without a position fix, truncated or malformed messages are
// dropped. Others are classified and appended to the log.
func (r *Receiver) HandleMessage(ctx context.Context, msg comm.Message) (Outcome, error) {
	start := time.Now()
	defer metrics.ObserveCycle(start)
	metrics.Received.Inc()

	if comm.IsTopicAck(msg, comm.TopicOf(r.PSID)) {
		glog.V(3).Info("topic acknowledgement")
		return r.skip(metrics.ReasonTopicAck)
	}

	fix, err := r.GPS.Fix(ctx)
	if err != nil {
		if errors.Is(err, gps.ErrNoFix) {
			glog.V(1).Info("no position fix, drop message")
			return r.skip(metrics.ReasonNoFix)
		}
		metrics.Skipped.WithLabelValues(metrics.ReasonGPSError).Inc()
		return Outcome{Skipped: metrics.ReasonGPSError}, err
	}
	distance := geo.DistanceBetween(geo.Point{Lat: fix.Latitude, Lon: fix.Longitude}, r.Reference)
	metrics.DistanceToReference.Set(distance)

	wm, err := wsmp.Parse(msg.Payload)
	if err != nil {
		glog.Warningf("drop message: %v", err)
		return r.skip(metrics.ReasonTruncated)
	}
	glog.V(2).Infof("wsmp %s", wm)

	text := wm.Text()
	fields, err := appdata.Parse(text)
	var detected bool
	if err == nil {
		detected, err = appdata.Classify(fields)
	}
	if err != nil {
		glog.Warningf("drop message %q: %v", text, err)
		return r.skip(metrics.ReasonMalformed)
	}
	metrics.Classified(detected)

	out := Outcome{
		Message:    wm,
		DistanceKm: distance,
		Detected:   detected,
		Line:       appdata.ClassificationLine(text, detected),
	}
	glog.Infof("communicating with RSU at %.3f km: %s", distance, out.Line)
	if err := r.Log.Append(out.Line); err != nil {
		glog.Errorf("append %s: %v", r.Log.Path, err)
	}

	if r.Diag != nil {
		rec := diag.FromMessage(r.StationID, wm, detected, distance, time.Now())
		if err := r.Diag.Publish(ctx, rec); err != nil {
			glog.Warningf("publish diagnostics: %v", err)
		}
	}
	return out, nil
}
