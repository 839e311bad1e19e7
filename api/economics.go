package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/rakutentech/fleetbench/report"
)

const archiveURLHeader = "X-Archive-Url"

type economicsResponse struct {
	*report.Report
	ArchiveURL string `json:"archive_url,omitempty"`
}

func (s *FleetbenchAPI) economicsHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	matrixRunID, err := parseID(params, "matrix_run_id")
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	qs := r.URL.Query()
	format := qs.Get("format")
	if format != "" && format != "json" && format != "csv" {
		s.handleErrors(w, makeInvalidRequestError(fmt.Sprintf("unknown format %s", format)))
		return
	}
	archive := false
	if v := qs.Get("archive"); v != "" {
		if archive, err = strconv.ParseBool(v); err != nil {
			s.handleErrors(w, makeInvalidResourceError("archive"))
			return
		}
	}

	rep, err := s.reports.Build(r.Context(), matrixRunID)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	resp := &economicsResponse{Report: rep}
	if archive {
		if s.archiver == nil {
			s.handleErrors(w, makeInternalServerError("object storage is not configured"))
			return
		}
		if resp.ArchiveURL, err = s.archiver.Archive(r.Context(), rep); err != nil {
			s.handleErrors(w, err)
			return
		}
		w.Header().Set(archiveURLHeader, resp.ArchiveURL)
	}
	if format == "csv" {
		data, err := rep.CSV()
		if err != nil {
			s.handleErrors(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=economics_%d.csv", matrixRunID))
		w.Write(data)
		return
	}
	s.jsonise(w, http.StatusOK, resp)
}

func (s *FleetbenchAPI) economicsArchiveHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	matrixRunID, err := parseID(params, "matrix_run_id")
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	if s.archiver == nil {
		s.handleErrors(w, makeInternalServerError("object storage is not configured"))
		return
	}
	name := params.ByName("archive_name")
	data, contentType, err := s.archiver.Fetch(r.Context(), matrixRunID, name)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=economics_%d_%s", matrixRunID, name))
	w.Write(data)
}
