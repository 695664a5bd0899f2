package gps

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config selects the position provider.
type Config struct {
	// URL is one of
	//   static:<lat>,<lon>
	//   gpsd://host:2947
	//   serial:///dev/ttyUSB0?baud=9600
	URL string
	// MaxAge discards fixes older than this, 0 keeps the last fix forever.
	MaxAge time.Duration
}

var defaultConfig = Config{
	URL:    "gpsd://" + DefaultGpsdAddr,
	MaxAge: 5 * time.Second,
}

func init() {
	if val := os.Getenv("V2X_GPS_URL"); val != "" {
		defaultConfig.URL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "gps", defaultConfig.URL, "Position provider URL (static:lat,lon, gpsd://host:port, serial:///dev/tty?baud=N).")
	flag.DurationVar(&defaultConfig.MaxAge, "gps-max-age", defaultConfig.MaxAge, "Discard fixes older than this, 0 to disable.")
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

// NewProvider creates the provider. Streaming providers should be
// closed when not used anymore.
func (c *Config) NewProvider(ctx context.Context) (Provider, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid gps URL: %v", err)
	}
	switch u.Scheme {
	case "static":
		fix, err := ParseLatLon(u.Opaque)
		if err != nil {
			return nil, err
		}
		return &Static{Position: fix}, nil
	case "gpsd":
		g, err := DialGpsd(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		g.MaxAge = c.MaxAge
		return g, nil
	case "serial":
		baud := DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q", val)
			}
		}
		n, err := OpenSerial(u.Path, baud)
		if err != nil {
			return nil, err
		}
		n.MaxAge = c.MaxAge
		return n, nil
	}
	return nil, fmt.Errorf("unknown gps URL scheme: %q", u.Scheme)
}

// MustNewProvider creates the provider and fails on error.
func (c *Config) MustNewProvider(ctx context.Context) Provider {
	p, err := c.NewProvider(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return p
}

// ParseLatLon parses "lat,lon" in degrees.
func ParseLatLon(s string) (Fix, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Fix{}, fmt.Errorf("invalid position %q, expect lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Fix{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Fix{}, fmt.Errorf("invalid longitude %q", parts[1])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Fix{}, fmt.Errorf("position %q out of range", s)
	}
	return Fix{Latitude: lat, Longitude: lon}, nil
}
