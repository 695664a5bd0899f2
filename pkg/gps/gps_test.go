package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	gpsd "github.com/stratoberry/go-gpsd"
	"github.com/stretchr/testify/require"
)

func TestGpsdReports(t *testing.T) {
	g := &Gpsd{}
	_, err := g.Fix(context.Background())
	require.True(t, errors.Is(err, ErrNoFix))

	g.handleTPV(&gpsd.TPVReport{Class: "TPV", Mode: gpsd.NoFix})
	_, err = g.Fix(context.Background())
	require.True(t, errors.Is(err, ErrNoFix))

	g.handleTPV(&gpsd.TPVReport{Class: "TPV", Mode: gpsd.Mode3D, Lat: 17.602347, Lon: 78.127117, Speed: 1.5})
	fix, err := g.Fix(context.Background())
	require.NoError(t, err)
	require.Equal(t, 17.602347, fix.Latitude)
	require.Equal(t, 78.127117, fix.Longitude)
	require.Equal(t, 1.5, fix.Speed)
	require.False(t, fix.Time.IsZero())

	// losing the fix invalidates the last position.
	g.handleTPV(&gpsd.TPVReport{Class: "TPV", Mode: gpsd.NoFix})
	_, err = g.Fix(context.Background())
	require.True(t, errors.Is(err, ErrNoFix))
}

func TestDialGpsdCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DialGpsd(ctx, "127.0.0.1:1")
	require.Error(t, err)
}

func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

func TestNMEAReports(t *testing.T) {
	input := strings.Join([]string{
		"garbage",
		sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
		sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"),
		"",
	}, "\r\n")
	n := NewNMEA("test", io.NopCloser(strings.NewReader(input)))
	<-n.done
	// the reader ended, so the fix was dropped.
	_, err := n.Fix(context.Background())
	require.True(t, errors.Is(err, ErrNoFix))

	n = &NMEA{}
	require.NoError(t, n.consume(strings.NewReader(input)))
	fix, err := n.Fix(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 48.1173, fix.Latitude, 1e-4)
	require.InDelta(t, 11.5167, fix.Longitude, 1e-4)
	require.InDelta(t, 22.4*0.514444, fix.Speed, 1e-6)

	void := sentence("GPRMC,123520,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	require.NoError(t, n.consume(strings.NewReader(void+"\r\n")))
	_, err = n.Fix(context.Background())
	require.True(t, errors.Is(err, ErrNoFix))
}

func TestMaxAge(t *testing.T) {
	now := time.Unix(1000, 0)
	l := &latest{MaxAge: time.Second, now: func() time.Time { return now }}
	l.update(Fix{Latitude: 1, Longitude: 2})
	_, err := l.Fix(context.Background())
	require.NoError(t, err)
	now = now.Add(2 * time.Second)
	_, err = l.Fix(context.Background())
	require.True(t, errors.Is(err, ErrNoFix))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Fix(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestParseLatLon(t *testing.T) {
	testCases := []struct {
		in       string
		lat, lon float64
		ok       bool
	}{
		{"17.602347,78.127117", 17.602347, 78.127117, true},
		{" -33.5 , 151.2 ", -33.5, 151.2, true},
		{"17.6", 0, 0, false},
		{"north,78", 0, 0, false},
		{"91,0", 0, 0, false},
		{"0,181", 0, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			fix, err := ParseLatLon(tc.in)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.lat, fix.Latitude)
			require.Equal(t, tc.lon, fix.Longitude)
		})
	}
}

func TestNewProvider(t *testing.T) {
	conf := NewConfig()
	conf.URL = "static:17.602347,78.127117"
	p, err := conf.NewProvider(context.Background())
	require.NoError(t, err)
	fix, err := p.Fix(context.Background())
	require.NoError(t, err)
	require.Equal(t, 17.602347, fix.Latitude)
	require.False(t, fix.Time.IsZero())

	conf.URL = "carrier-pigeon://coop"
	_, err = conf.NewProvider(context.Background())
	require.Error(t, err)
	conf.URL = "serial:///dev/null?baud=fast"
	_, err = conf.NewProvider(context.Background())
	require.Error(t, err)
}
