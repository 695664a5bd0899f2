package main

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/env"
	fx "github.com/robotalks/v2x.go/pkg/framework"
	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/roles/obu"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetRole(env.RoleOBU, obu.DefaultAppName, obu.DefaultDataURL, obu.DefaultLogFile)
	env.SetupFlags()
	gps.SetupFlags()
	obu.SetupFlags()
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
	sub, err := conf.NewSubscription(ctx)
	if err != nil {
		glog.Exitf("subscribe %s: %v", conf.DataURL, err)
	}
	defer sub.Close()
	diagPub, err := conf.NewDiagPublisher(ctx)
	if err != nil {
		glog.Exitf("connect diagnostics %s: %v", conf.DiagURL, err)
	}
	cancel()

	receiver := obu.Default().MustNewReceiver(obu.Deps{
		Requester:    requester,
		Subscription: sub,
		GPS:          gps.Default().MustNewProvider(runner.Context),
		Diag:         diagPub,
		StationID:    conf.StationID,
		PSID:         conf.PSID,
		AppName:      conf.AppName,
		LogFile:      conf.LogFile,
	})
	services, err := conf.Runnables()
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("obu %s: psid=%d wme=%s data=%s", conf.StationID, conf.PSID, conf.WMEURL, conf.DataURL)
	if err := runner.RunMain(receiver, services...); err != nil {
		glog.Exit(err)
	}
}
