package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/rakutentech/fleetbench/cost"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/planner"
)

type stagePreviewRequest struct {
	Name   string                 `json:"name"`
	Stages []*model.LoadTestStage `json:"stages"`
}

type stagePreviewResponse struct {
	Name string        `json:"name"`
	Plan *planner.Plan `json:"plan"`
}

func isYAML(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.Contains(ct, "yaml")
}

// stagesPreviewHandler plans a stage list without running it, so the shape of
// a load test can be checked second by second before it hits the fleet.
func (s *FleetbenchAPI) stagesPreviewHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(stagePreviewRequest)
	if isYAML(r) {
		raw, err := readBody(r)
		if err != nil {
			s.handleErrors(w, err)
			return
		}
		name, stages, err := planner.LoadStagesYAML(raw)
		if err != nil {
			var ve *model.ValidationError
			if !errors.As(err, &ve) && !errors.Is(err, planner.ErrNoStages) {
				err = makeInvalidRequestError(err.Error())
			}
			s.handleErrors(w, err)
			return
		}
		req.Name, req.Stages = name, stages
	} else {
		if err := decodeJSONBody(r, req); err != nil {
			s.handleErrors(w, err)
			return
		}
		if len(req.Stages) == 0 {
			s.handleErrors(w, planner.ErrNoStages)
			return
		}
		for i, st := range req.Stages {
			if st == nil {
				s.handleErrors(w, planner.ErrNoStages)
				return
			}
			st.Position = i
		}
	}
	plan, err := planner.BuildPlan(req.Stages)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	s.jsonise(w, http.StatusOK, &stagePreviewResponse{Name: req.Name, Plan: plan})
}

func (s *FleetbenchAPI) costModelHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	in := cost.Input{}
	if err := decodeJSONBody(r, &in); err != nil {
		s.handleErrors(w, err)
		return
	}
	s.jsonise(w, http.StatusOK, cost.BuildWithDefaults(in, s.defaultRunCounts))
}

func (s *FleetbenchAPI) variantCreateHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	v := model.Variant{}
	if err := decodeJSONBody(r, &v); err != nil {
		s.handleErrors(w, err)
		return
	}
	created, err := s.store.FindOrCreateVariant(r.Context(), v)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	s.jsonise(w, http.StatusOK, created)
}
