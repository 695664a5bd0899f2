package obu

import (
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/diag"
	"github.com/robotalks/v2x.go/pkg/geo"
	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/logfile"
	"github.com/robotalks/v2x.go/pkg/wave/wme"
)

// Defaults of the OBU station.
const (
	DefaultAppName   = "RX_APPLICATION"
	DefaultDataURL   = "tcp://localhost:4444"
	DefaultLogFile   = "OBU_RX.txt"
	DefaultReference = "17.602347,78.127117"
)

// Config defines the configurations of the receiver.
type Config struct {
	// Reference is the lat,lon the distance is measured to.
	Reference string
	// RecvTimeout bounds each receive, 0 blocks until a message arrives.
	RecvTimeout time.Duration
}

var defaultConfig = Config{
	Reference: DefaultReference,
}

func init() {
	if val := os.Getenv("V2X_REFERENCE"); val != "" {
		defaultConfig.Reference = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Reference, "reference", defaultConfig.Reference, "Reference point as lat,lon.")
	flag.DurationVar(&defaultConfig.RecvTimeout, "recv-timeout", defaultConfig.RecvTimeout, "Bound each receive, 0 waits forever.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Deps are the collaborators of a Receiver.
type Deps struct {
	Requester    comm.Requester
	Subscription comm.Subscription
	GPS          gps.Provider
	Diag         *diag.Publisher
	StationID    string
	PSID         uint32
	AppName      string
	LogFile      string
}

// NewReceiver creates a Receiver using the config.
func (c *Config) NewReceiver(d Deps) (*Receiver, error) {
	ref, err := gps.ParseLatLon(c.Reference)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		Subscriber:   wme.NewSubscriber(d.Requester),
		Subscription: d.Subscription,
		GPS:          d.GPS,
		Diag:         d.Diag,
		Log:          &logfile.Writer{Path: d.LogFile},
		StationID:    d.StationID,
		PSID:         d.PSID,
		AppName:      d.AppName,
		Reference:    geo.Point{Lat: ref.Latitude, Lon: ref.Longitude},
		RecvTimeout:  c.RecvTimeout,
	}, nil
}

// MustNewReceiver creates a Receiver and fails on error.
func (c *Config) MustNewReceiver(d Deps) *Receiver {
	r, err := c.NewReceiver(d)
	if err != nil {
		glog.Exit(err)
	}
	return r
}
