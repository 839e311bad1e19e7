package main

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"

	"github.com/rakutentech/fleetbench/api"
	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/controller"
	"github.com/rakutentech/fleetbench/fault"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/object_storage"
	"github.com/rakutentech/fleetbench/report"
)

func main() {
	config.Init()
	if config.SC.DBC == nil {
		log.Fatal("db is not configured")
	}
	store := model.NewStore(config.SC.DBC)
	injector, err := fault.NewInjectorFromConfig(config.SC)
	if err != nil {
		log.Fatal(err)
	}
	ctr := controller.NewController(store, store, injector)
	builder := report.NewBuilder(store, report.Options{
		Thresholds:  report.ThresholdsFromConfig(config.SC.Economics),
		Concurrency: config.SC.Economics.ReportConcurrency,
	})

	// reports are still served without object storage, only archiving is off
	var archiver api.ReportArchiver
	if config.SC.ObjectStorage != nil {
		storage, err := object_storage.NewStorage(config.SC)
		if err != nil {
			log.Fatal(err)
		}
		archiver = report.NewArchiver(storage)
	}

	s := api.NewAPIServer(store, ctr, injector, builder, archiver)
	r := httprouter.New()
	for _, route := range s.InitRoutes() {
		r.Handle(route.Method, route.Path, route.HandlerFunc)
	}
	r.Handler("GET", "/metrics", promhttp.Handler())
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", 8080), r))
}
