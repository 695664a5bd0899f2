package main

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/env"
	fx "github.com/robotalks/v2x.go/pkg/framework"
	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/roles/rsu"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetRole(env.RoleRSU, rsu.DefaultAppName, rsu.DefaultDataURL, rsu.DefaultLogFile)
	env.SetupFlags()
	gps.SetupFlags()
	rsu.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default().MustValidate()
	runner := fx.NewRunner().HandleSignals()

	ctx, cancel := context.WithTimeout(runner.Context, 10*time.Second)
	requester, err := conf.NewRequester(ctx)
	if err != nil {
		glog.Exitf("connect WME %s: %v", conf.WMEURL, err)
	}
	transmitter, err := conf.NewTransmitter(ctx)
	if err != nil {
		glog.Exitf("connect data plane %s: %v", conf.DataURL, err)
	}
	cancel()

	publisher := rsu.Default().NewPublisher(rsu.Deps{
		Requester:   requester,
		Transmitter: transmitter,
		GPS:         gps.Default().MustNewProvider(runner.Context),
		PSID:        conf.PSID,
		AppName:     conf.AppName,
		LogFile:     conf.LogFile,
	})
	services, err := conf.Runnables()
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("rsu %s: psid=%d wme=%s data=%s", conf.StationID, conf.PSID, conf.WMEURL, conf.DataURL)
	if err := runner.RunMain(publisher, services...); err != nil {
		glog.Exit(err)
	}
}
