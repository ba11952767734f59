package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/router"
	"github.com/brittanyzellman/prebid-tlx/server"
)

// Rev holds binary revision string
// Set manually at build time using:
//    go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	err = serve(Rev, cfg)
	if err != nil {
		glog.Exitf("prebid-tlx failed: %v", err)
	}
}

const configFileName = "tlx"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(revision string, cfg *config.Configuration) error {
	r, err := router.New(cfg)
	if err != nil {
		return err
	}

	version := cfg.Adapters[string(openrtb_ext.BidderTriplelift)].Version
	corsRouter := router.SupportCORS(r)
	return server.Listen(cfg, router.NoCache{Handler: corsRouter}, router.Admin(version, revision, r.MetricsEngine), r.MetricsEngine)
}
