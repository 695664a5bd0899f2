package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/comm/mqtt"
	"github.com/robotalks/v2x.go/pkg/env"
	"github.com/robotalks/v2x.go/pkg/geo"
	"github.com/robotalks/v2x.go/pkg/wave/wme"
	"github.com/robotalks/v2x.go/pkg/wave/wsmp"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config

	requester  comm.Requester
	subscriber *wme.Subscriber
}

const (
	shellKey      = "$shell"
	defaultPrompt = "v2x > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = 3 * time.Second

	// commands
	commands = []*ishell.Cmd{
		&SubscribeCmd,
		&UnsubscribeCmd,
		&EncodeCmd,
		&DecodeCmd,
		&DistanceCmd,
		&HeadingCmd,
		&StationsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout of WME requests and discovery.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(defaultPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Print prints v as JSON in JSON mode, otherwise text.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) {
	if !s.OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Subscribe sends a WME request, connecting the control plane on first use.
// A failed requester is dropped so the next command reconnects.
func (s *Shell) Subscribe(psid uint32, appName string, action wme.Action) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	if s.subscriber == nil {
		req, err := s.Config.NewRequester(ctx)
		if err != nil {
			return err
		}
		s.requester, s.subscriber = req, wme.NewSubscriber(req)
	}
	err := s.subscriber.Subscribe(ctx, psid, appName, action)
	if s.subscriber.State() == wme.StateFailed {
		s.Close()
	}
	return err
}

// Close releases the control plane connection.
func (s *Shell) Close() {
	if closer, ok := s.requester.(io.Closer); ok {
		closer.Close()
	}
	s.requester, s.subscriber = nil, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// DecodedMessage is the printable form of a parsed WSM.
type DecodedMessage struct {
	Mode         string `json:"mode"`
	ChannelID    uint8  `json:"channel"`
	TimeSlot     uint8  `json:"time_slot"`
	DataRate     uint8  `json:"data_rate"`
	TxPower      int8   `json:"tx_power"`
	ChannelLoad  uint8  `json:"channel_load"`
	Info         uint8  `json:"info"`
	UserPriority uint8  `json:"user_priority"`
	ExpiryTime   uint8  `json:"expiry_time"`
	PeerMAC      string `json:"peer_mac"`
	PSID         uint32 `json:"psid"`
	DataLen      uint16 `json:"len"`
	Text         string `json:"text"`
}

// EncodeText builds a message from text with the default profile
// (PSID overridden) and returns it hex encoded.
func EncodeText(text string, psid uint32) (string, error) {
	profile := wsmp.DefaultProfile()
	profile.PSID = psid
	pkt, err := wsmp.Build(text, profile)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pkt), nil
}

// DecodeHex parses a hex encoded message. Whitespace and a 0x prefix
// are ignored.
func DecodeHex(s string) (*DecodedMessage, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	pkt, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %v", err)
	}
	msg, err := wsmp.Parse(pkt)
	if err != nil {
		return nil, err
	}
	return &DecodedMessage{
		Mode:         msg.Mode.String(),
		ChannelID:    msg.ChannelID,
		TimeSlot:     msg.TimeSlot,
		DataRate:     msg.DataRate,
		TxPower:      msg.TxPower,
		ChannelLoad:  msg.ChannelLoad,
		Info:         msg.Info,
		UserPriority: msg.UserPriority,
		ExpiryTime:   msg.ExpiryTime,
		PeerMAC:      string(msg.PeerMAC),
		PSID:         msg.PSID,
		DataLen:      msg.DataLen,
		Text:         msg.Text(),
	}, nil
}

// ParsePoints parses LAT1 LON1 LAT2 LON2.
func ParsePoints(args []string) (a, b geo.Point, err error) {
	if len(args) != 4 {
		return a, b, fmt.Errorf("LAT1 LON1 LAT2 LON2 required")
	}
	var vals [4]float64
	for n, arg := range args {
		if vals[n], err = strconv.ParseFloat(arg, 64); err != nil {
			return a, b, fmt.Errorf("invalid coordinate %q", arg)
		}
	}
	return geo.Point{Lat: vals[0], Lon: vals[1]}, geo.Point{Lat: vals[2], Lon: vals[3]}, nil
}

func parseSubscribeArgs(c *ishell.Context, conf *env.Config) (uint32, string, error) {
	psid, appName := conf.PSID, conf.AppName
	if len(c.Args) > 0 {
		v, err := strconv.ParseUint(c.Args[0], 0, 32)
		if err != nil {
			return 0, "", fmt.Errorf("Invalid PSID: %v", err)
		}
		psid = uint32(v)
	}
	if len(c.Args) > 1 {
		appName = c.Args[1]
	}
	if appName == "" {
		return 0, "", fmt.Errorf("APP required")
	}
	return psid, appName, nil
}

func subscribeFunc(action wme.Action) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		psid, appName, err := parseSubscribeArgs(c, s.Config)
		if err != nil {
			c.Err(err)
			return
		}
		if err := s.Subscribe(psid, appName, action); err != nil {
			c.Err(err)
			return
		}
		s.Print(c, map[string]interface{}{
			"action": action.String(),
			"psid":   psid,
			"app":    appName,
		}, "OK")
	}
}

var (
	// SubscribeCmd registers an application with WME.
	SubscribeCmd = ishell.Cmd{
		Name:    "subscribe",
		Aliases: []string{"sub"},
		Help:    "[PSID] [APP]",
		Func:    subscribeFunc(wme.ActionAdd),
	}

	// UnsubscribeCmd removes an application from WME.
	UnsubscribeCmd = ishell.Cmd{
		Name:    "unsubscribe",
		Aliases: []string{"unsub"},
		Help:    "[PSID] [APP]",
		Func:    subscribeFunc(wme.ActionDelete),
	}

	// EncodeCmd prints the hex of a message carrying TEXT.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TEXT required"))
				return
			}
			out, err := EncodeText(strings.Join(c.Args, " "), s.Config.PSID)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, map[string]string{"hex": out}, out)
		},
	}

	// DecodeCmd parses a hex encoded message.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "HEX",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			msg, err := DecodeHex(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Print(c, msg, fmt.Sprintf(
				"mode=%s ch=%d rate=%d txpow=%d mac=%s psid=%d len=%d\n%s",
				msg.Mode, msg.ChannelID, msg.DataRate, msg.TxPower,
				msg.PeerMAC, msg.PSID, msg.DataLen, msg.Text))
		},
	}

	// DistanceCmd prints the chord distance in km.
	DistanceCmd = ishell.Cmd{
		Name:    "distance",
		Aliases: []string{"dist"},
		Help:    "LAT1 LON1 LAT2 LON2",
		Func: func(c *ishell.Context) {
			a, b, err := ParsePoints(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			d := geo.DistanceBetween(a, b)
			ShellFrom(c).Print(c, map[string]float64{"km": d}, fmt.Sprintf("%.6f km", d))
		},
	}

	// HeadingCmd prints the heading in degrees from the first point.
	HeadingCmd = ishell.Cmd{
		Name:    "heading",
		Aliases: []string{"hdg"},
		Help:    "LAT1 LON1 LAT2 LON2",
		Func: func(c *ishell.Context) {
			a, b, err := ParsePoints(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			h := geo.Heading(a, b)
			ShellFrom(c).Print(c, map[string]float64{"degrees": h}, fmt.Sprintf("%.2f°", h))
		},
	}

	// StationsCmd lists stations announced on the presence broker.
	StationsCmd = ishell.Cmd{
		Name:    "stations",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Config.PresenceURL == "" {
				c.Err(fmt.Errorf("presence URL not configured"))
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
			defer cancel()
			stations, err := mqtt.Discover(ctx, s.Config.PresenceURL, mqtt.DefaultDiscoverTimeout)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(stations) == 0 {
					// in case stations is nil, make it empty slice.
					stations = []mqtt.Station{}
				}
				s.Print(c, stations, "")
				return
			}
			if len(stations) == 0 {
				c.Println("No stations found")
				return
			}
			for _, st := range stations {
				line := st.Name()
				if app := st.Meta["app"]; app != "" {
					line += ": " + app + " psid=" + st.Meta["psid"]
				}
				c.Println(line)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
