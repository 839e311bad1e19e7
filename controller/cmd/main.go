package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/controller"
	"github.com/rakutentech/fleetbench/fault"
	"github.com/rakutentech/fleetbench/model"
)

const pollInterval = 5 * time.Second

// Runs created through the api of other processes are picked up here, so the
// api can be scaled without executing a run twice.
func main() {
	log.Info("Controller is running in distributed mode")
	config.Init()
	if config.SC.DBC == nil {
		log.Fatal("db is not configured")
	}
	store := model.NewStore(config.SC.DBC)
	injector, err := fault.NewInjectorFromConfig(config.SC)
	if err != nil {
		log.Fatal(err)
	}
	c := controller.NewController(store, store, injector)
	c.PollPendingRuns(context.Background(), pollInterval)
}
