package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/robotalks/v2x.go/pkg/comm/transport"
	"github.com/robotalks/v2x.go/pkg/diag"
	fx "github.com/robotalks/v2x.go/pkg/framework"
)

var (
	diagURL   = "mqtt://localhost:1883/"
	diagTopic = diag.DefaultTopic
	indent    bool
)

func init() {
	if val := os.Getenv("V2X_DIAG_URL"); val != "" {
		diagURL = val
	}
	flag.StringVar(&diagURL, "diag", diagURL, "Diagnostics URL (mqtt://, nats://, tcp:// for a zmq publisher).")
	flag.StringVar(&diagTopic, "topic", diagTopic, "Diagnostics topic.")
	flag.BoolVar(&indent, "indent", indent, "Indent JSON output.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	runner := fx.NewRunner().HandleSignals()
	sub, err := transport.NewSubscription(runner.Context, diagURL, diagTopic, "v2xmon")
	if err != nil {
		log.Fatalln(err)
	}
	defer sub.Close()

	runner.RunOrFail(fx.NamedRun("monitor", fx.RunnableFunc(func(ctx context.Context) error {
		for {
			msg, err := sub.Receive(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			s, err := diag.Decode(msg.Payload)
			if err != nil {
				log.Printf("%s: bad record: %v", msg.Topic, err)
				continue
			}
			out, err := diag.Format(s, indent)
			if err != nil {
				log.Printf("%s: format error: %v", msg.Topic, err)
				continue
			}
			log.Printf("%s: %s", msg.Topic, out)
		}
	})))
}
