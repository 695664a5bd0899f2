package rsu

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/logfile"
	"github.com/robotalks/v2x.go/pkg/telemetry"
	"github.com/robotalks/v2x.go/pkg/wave/wme"
	"github.com/robotalks/v2x.go/pkg/wave/wsmp"
)

// Defaults of the RSU station.
const (
	DefaultAppName = "TX_APPLICATION"
	DefaultDataURL = "tcp://localhost:5555"
	DefaultLogFile = "RSU_TX.txt"
	DefaultCSVPath = "person_detection.csv"
)

// Config defines the configurations of the publisher.
type Config struct {
	Interval time.Duration
	CSVPath  string
	// SeedOrigin reports a heading from (0,0) on the first fix.
	SeedOrigin bool
	Profile    wsmp.TransmitProfile
}

var defaultConfig = Config{
	Interval: time.Second,
	CSVPath:  DefaultCSVPath,
	Profile:  wsmp.DefaultProfile(),
}

func init() {
	if val := os.Getenv("V2X_CSV_PATH"); val != "" {
		defaultConfig.CSVPath = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Delay between publish cycles.")
	flag.StringVar(&defaultConfig.CSVPath, "csv", defaultConfig.CSVPath, "Detector CSV file.")
	flag.BoolVar(&defaultConfig.SeedOrigin, "seed-origin", defaultConfig.SeedOrigin, "Seed the heading track with (0,0).")
	flag.Func("channel", "Channel ID (default 172).", uint8Flag(&defaultConfig.Profile.ChannelID))
	flag.Func("data-rate", "Data rate (default 12).", uint8Flag(&defaultConfig.Profile.DataRate))
	flag.Func("tx-power", "Transmit power (default -98).", int8Flag(&defaultConfig.Profile.TxPower))
	flag.Func("user-priority", "User priority (default 0).", uint8Flag(&defaultConfig.Profile.UserPriority))
	flag.Func("peer-mac", "Peer MAC address as integer (default 16557351571215).", uint64Flag(&defaultConfig.Profile.PeerMAC))
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

// Deps are the collaborators of a Publisher.
type Deps struct {
	Requester   comm.Requester
	Transmitter comm.Transmitter
	GPS         gps.Provider
	PSID        uint32
	AppName     string
	LogFile     string
}

// NewPublisher creates a Publisher using the config.
func (c *Config) NewPublisher(d Deps) *Publisher {
	profile := c.Profile
	profile.PSID = d.PSID
	return &Publisher{
		Subscriber:  wme.NewSubscriber(d.Requester),
		Transmitter: d.Transmitter,
		GPS:         d.GPS,
		Telemetry:   &telemetry.CSVSource{Path: c.CSVPath},
		Log:         &logfile.Writer{Path: d.LogFile},
		AppName:     d.AppName,
		Profile:     profile,
		Interval:    c.Interval,
		SeedOrigin:  c.SeedOrigin,
	}
}
