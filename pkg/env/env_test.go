package env

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("V2X_PSID", "0x20")
	t.Setenv("V2X_APP_NAME", "RX_APPLICATION")
	t.Setenv("V2X_DATA_URL", "mqtt://broker:1883/v2x")
	conf := &Config{PSID: 1, AppName: "x", DataURL: "tcp://localhost:4444"}
	applyEnv(conf)
	require.Equal(t, uint32(32), conf.PSID)
	require.Equal(t, "RX_APPLICATION", conf.AppName)
	require.Equal(t, "mqtt://broker:1883/v2x", conf.DataURL)
	require.Equal(t, "32", conf.Topic())
}

func TestPSIDFlag(t *testing.T) {
	var psid uint32
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(psidFlag{&psid}, "psid", "")
	require.NoError(t, fs.Parse([]string{"-psid", "4294967295"}))
	require.Equal(t, uint32(0xffffffff), psid)
	require.Error(t, fs.Parse([]string{"-psid", "4294967296"}))
}

func TestValidate(t *testing.T) {
	conf := &Config{
		Role:      RoleOBU,
		StationID: "abc",
		PSID:      32,
		AppName:   "RX_APPLICATION",
		WMEURL:    DefaultWMEURL,
		DataURL:   "tcp://localhost:4444",
	}
	require.NoError(t, conf.Validate())
	st := conf.Station()
	require.Equal(t, "obu/abc", st.Name())
	require.Equal(t, "32", st.Meta["psid"])
	require.Equal(t, "v2x:obu/abc/wme", conf.ClientID("wme"))

	conf.AppName = ""
	require.Error(t, conf.Validate())
}

func TestRunnables(t *testing.T) {
	conf := &Config{Role: RoleRSU, StationID: "abc", MetricsAddr: "127.0.0.1:0"}
	runners, err := conf.Runnables()
	require.NoError(t, err)
	require.Len(t, runners, 1)

	conf.MetricsAddr = ""
	runners, err = conf.Runnables()
	require.NoError(t, err)
	require.Empty(t, runners)
}
