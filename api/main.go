package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/controller"
	"github.com/rakutentech/fleetbench/fault"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/object_storage"
	"github.com/rakutentech/fleetbench/planner"
	"github.com/rakutentech/fleetbench/report"
)

type Store interface {
	GetRun(ctx context.Context, id int64) (*model.LoadTestRun, error)
	GetExecutionEnvironment(ctx context.Context, id int64) (*model.ExecutionEnvironment, error)
	FindOrCreateVariant(ctx context.Context, v model.Variant) (*model.Variant, error)
	RecordFaultInjection(ctx context.Context, rec model.FaultInjectionRecord) error
}

type RunController interface {
	StartRun(ctx context.Context, runID int64) error
	StopRun(runID int64) bool
}

type ReportBuilder interface {
	Build(ctx context.Context, matrixRunID int64) (*report.Report, error)
}

type ReportArchiver interface {
	Archive(ctx context.Context, r *report.Report) (string, error)
	Fetch(ctx context.Context, matrixRunID int64, name string) ([]byte, string, error)
}

type FleetbenchAPI struct {
	store    Store
	ctr      RunController
	injector controller.StageInjector
	reports  ReportBuilder

	// nil when object storage is not configured
	archiver         ReportArchiver
	defaultRunCounts []int
}

func NewAPIServer(store Store, ctr RunController, injector controller.StageInjector, reports ReportBuilder,
	archiver ReportArchiver) *FleetbenchAPI {
	s := &FleetbenchAPI{
		store:            store,
		ctr:              ctr,
		injector:         injector,
		reports:          reports,
		archiver:         archiver,
		defaultRunCounts: config.DefaultRunCounts,
	}
	if config.SC != nil && config.SC.Economics != nil {
		s.defaultRunCounts = config.SC.Economics.DefaultRunCounts
	}
	return s
}

type JSONMessage struct {
	Message string `json:"message"`
}

func (s *FleetbenchAPI) jsonise(w http.ResponseWriter, status int, content interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(content)
}

func (s *FleetbenchAPI) makeRespMessage(message string) *JSONMessage {
	return &JSONMessage{
		Message: message,
	}
}

func (s *FleetbenchAPI) makeFailMessage(w http.ResponseWriter, message string, statusCode int) {
	messageObj := s.makeRespMessage(message)
	s.jsonise(w, statusCode, messageObj)
}

// handles errors from other packages, like model, fault, etc.
// unhandled errors will be returned
func (s *FleetbenchAPI) handleErrorsFromExt(w http.ResponseWriter, err error) error {
	var (
		dbe *model.DBError
		ve  *model.ValidationError
		ie  *fault.InjectionError
		fnf object_storage.FileNotFound
	)
	switch {
	case errors.As(err, &ve):
		s.makeFailMessage(w, err.Error(), http.StatusBadRequest)
		return nil
	case errors.As(err, &ie):
		s.makeFailMessage(w, ie.Error(), http.StatusBadGateway)
		return nil
	case errors.As(err, &dbe):
		s.makeFailMessage(w, dbe.Error(), http.StatusNotFound)
		return nil
	case errors.Is(err, controller.RunError):
		s.makeFailMessage(w, err.Error(), http.StatusConflict)
		return nil
	case errors.Is(err, planner.ErrNoStages), errors.Is(err, report.ErrBadArchiveName):
		s.makeFailMessage(w, err.Error(), http.StatusBadRequest)
		return nil
	case errors.As(err, &fnf):
		s.makeFailMessage(w, fnf.Error(), http.StatusNotFound)
		return nil
	}
	return err
}

func (s *FleetbenchAPI) handleErrors(w http.ResponseWriter, err error) {
	unhandledError := s.handleErrorsFromExt(w, err)
	if unhandledError != nil {
		switch {
		case errors.Is(err, invalidRequestErr):
			s.makeFailMessage(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("api error: %v", err)
			s.makeFailMessage(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type Route struct {
	Name        string
	Method      string
	Path        string
	HandlerFunc httprouter.Handle
}

type Routes []*Route

func (s *FleetbenchAPI) InitRoutes() Routes {
	return Routes{
		&Route{"preview_stages", "POST", "/api/stages/preview", s.stagesPreviewHandler},
		&Route{"cost_model", "POST", "/api/cost_model", s.costModelHandler},
		&Route{"create_variant", "POST", "/api/variants", s.variantCreateHandler},

		&Route{"start_run", "POST", "/api/runs/:run_id/start", s.runStartHandler},
		&Route{"stop_run", "POST", "/api/runs/:run_id/stop", s.runStopHandler},
		&Route{"inject_fault", "POST", "/api/runs/:run_id/stages/:stage_id/faults", s.stageFaultHandler},

		&Route{"economics", "GET", "/api/matrix_runs/:matrix_run_id/economics", s.economicsHandler},
		&Route{"economics_archive", "GET", "/api/matrix_runs/:matrix_run_id/economics/archives/:archive_name",
			s.economicsArchiveHandler},
	}
}
