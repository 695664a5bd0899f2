// Package env holds the station configuration shared by the RSU and
// OBU commands and creates the transports it describes.
package env

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/comm/mqtt"
	"github.com/robotalks/v2x.go/pkg/comm/transport"
	"github.com/robotalks/v2x.go/pkg/diag"
	fx "github.com/robotalks/v2x.go/pkg/framework"
	"github.com/robotalks/v2x.go/pkg/metrics"
)

// Roles.
const (
	RoleRSU = "rsu"
	RoleOBU = "obu"
)

// DefaultWMEURL is the WME service of the local WAVE stack.
const DefaultWMEURL = "tcp://localhost:9999"

// Config is the station configuration.
type Config struct {
	Role      string
	StationID string
	PSID      uint32
	AppName   string

	// WMEURL is the control plane endpoint.
	WMEURL string
	// DataURL is the data plane endpoint: where the RSU transmits or
	// the OBU subscribes.
	DataURL string
	// DiagURL optionally publishes diagnostic records.
	DiagURL   string
	DiagTopic string
	// PresenceURL optionally announces the station on an MQTT broker.
	PresenceURL string
	MetricsAddr string
	LogFile     string
}

var defaultConfig = Config{
	PSID:      32,
	WMEURL:    DefaultWMEURL,
	DiagTopic: diag.DefaultTopic,
}

func init() {
	defaultConfig.StationID = MachineID()
	applyEnv(&defaultConfig)
}

func applyEnv(c *Config) {
	if val := os.Getenv("V2X_STATION_ID"); val != "" {
		c.StationID = val
	}
	if val := os.Getenv("V2X_PSID"); val != "" {
		if psid, err := strconv.ParseUint(val, 0, 32); err == nil {
			c.PSID = uint32(psid)
		}
	}
	if val := os.Getenv("V2X_APP_NAME"); val != "" {
		c.AppName = val
	}
	if val := os.Getenv("V2X_WME_URL"); val != "" {
		c.WMEURL = val
	}
	if val := os.Getenv("V2X_DATA_URL"); val != "" {
		c.DataURL = val
	}
	if val := os.Getenv("V2X_DIAG_URL"); val != "" {
		c.DiagURL = val
	}
	if val := os.Getenv("V2X_PRESENCE_URL"); val != "" {
		c.PresenceURL = val
	}
	if val := os.Getenv("V2X_METRICS_ADDR"); val != "" {
		c.MetricsAddr = val
	}
	if val := os.Getenv("V2X_LOG_FILE"); val != "" {
		c.LogFile = val
	}
}

// SetRole should be called before SetupFlags with the role defaults.
// Environment variables still take precedence.
func SetRole(role, appName, dataURL, logFile string) {
	defaultConfig.Role = role
	defaultConfig.AppName = appName
	defaultConfig.DataURL = dataURL
	defaultConfig.LogFile = logFile
	applyEnv(&defaultConfig)
}

type psidFlag struct{ v *uint32 }

func (f psidFlag) String() string {
	if f.v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*f.v), 10)
}

func (f psidFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid PSID %q", s)
	}
	*f.v = uint32(v)
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.StationID, "id", defaultConfig.StationID, "Station ID.")
	flag.Var(psidFlag{&defaultConfig.PSID}, "psid", "Provider Service Identifier.")
	flag.StringVar(&defaultConfig.AppName, "app", defaultConfig.AppName, "Application name registered with WME.")
	flag.StringVar(&defaultConfig.WMEURL, "wme", defaultConfig.WMEURL, "WME endpoint URL.")
	flag.StringVar(&defaultConfig.DataURL, "data", defaultConfig.DataURL, "WSMP data plane endpoint URL.")
	flag.StringVar(&defaultConfig.DiagURL, "diag", defaultConfig.DiagURL, "Publish diagnostic records to this URL (mqtt://, nats://, pub+tcp://).")
	flag.StringVar(&defaultConfig.DiagTopic, "diag-topic", defaultConfig.DiagTopic, "Topic of diagnostic records.")
	flag.StringVar(&defaultConfig.PresenceURL, "presence", defaultConfig.PresenceURL, "Announce the station on this MQTT broker.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics-addr", defaultConfig.MetricsAddr, "Serve Prometheus metrics on this address.")
	flag.StringVar(&defaultConfig.LogFile, "log-file", defaultConfig.LogFile, "Append-only message log.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks required settings.
func (c *Config) Validate() error {
	switch {
	case c.StationID == "":
		return fmt.Errorf("station id must be specified")
	case c.AppName == "":
		return fmt.Errorf("application name must be specified")
	case c.WMEURL == "":
		return fmt.Errorf("WME URL must be specified")
	case c.DataURL == "":
		return fmt.Errorf("data URL must be specified")
	}
	return nil
}

// Topic is the data plane topic of the PSID.
func (c *Config) Topic() string {
	return comm.TopicOf(c.PSID)
}

// ClientID names a connection of this station.
func (c *Config) ClientID(suffix string) string {
	return "v2x:" + c.Role + "/" + c.StationID + "/" + suffix
}

// Station describes this station for presence announcements.
func (c *Config) Station() mqtt.Station {
	return mqtt.Station{
		Role: c.Role,
		ID:   c.StationID,
		Meta: map[string]string{
			"psid": strconv.FormatUint(uint64(c.PSID), 10),
			"app":  c.AppName,
		},
	}
}

// NewRequester connects the WME control plane.
func (c *Config) NewRequester(ctx context.Context) (comm.Requester, error) {
	return transport.NewRequester(ctx, c.WMEURL, c.ClientID("wme"))
}

// NewTransmitter connects the RSU data plane.
func (c *Config) NewTransmitter(ctx context.Context) (comm.Transmitter, error) {
	return transport.NewTransmitter(ctx, c.DataURL, c.PSID, c.ClientID("wsmp"))
}

// NewSubscription connects the OBU data plane filtered on the PSID topic.
func (c *Config) NewSubscription(ctx context.Context) (comm.Subscription, error) {
	return transport.NewSubscription(ctx, c.DataURL, c.Topic(), c.ClientID("wsmp"))
}

// NewDiagPublisher connects the diagnostics publisher, nil when disabled.
func (c *Config) NewDiagPublisher(ctx context.Context) (*diag.Publisher, error) {
	if c.DiagURL == "" {
		return nil, nil
	}
	pub, err := transport.NewPublisher(ctx, c.DiagURL, c.ClientID("diag"))
	if err != nil {
		return nil, err
	}
	return &diag.Publisher{Publisher: pub, Topic: c.DiagTopic}, nil
}

// Runnables returns the optional background services: metrics and
// presence.
func (c *Config) Runnables() ([]fx.Runnable, error) {
	var runners []fx.Runnable
	if c.MetricsAddr != "" {
		runners = append(runners, fx.NamedRun("metrics", &metrics.Server{Addr: c.MetricsAddr}))
	}
	if c.PresenceURL != "" {
		reg, err := mqtt.NewRegistrar(c.PresenceURL, c.Station())
		if err != nil {
			return nil, fmt.Errorf("create presence registrar error: %v", err)
		}
		runners = append(runners, fx.NamedRun("presence", reg))
	}
	return runners, nil
}

// MustValidate fails when the config is not usable.
func (c *Config) MustValidate() *Config {
	if err := c.Validate(); err != nil {
		log.Fatalln(err)
	}
	return c
}
