package main

import (
	"net/http"

	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
)

func (s *server) handleRunsList(w http.ResponseWriter, r *http.Request) {
	var status production.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := production.ParseStatus(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		status = st
	}
	runs, err := s.store.ListRuns(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type createRunRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Batch     int64  `json:"batch" validate:"required,gt=0"`
	Notes     string `json:"notes" validate:"max=1000"`
}

func (s *server) handleRunCreate(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	run, err := s.ledger.Create(r.Context(), production.CreateInput{
		ProductID: req.ProductID,
		Batch:     req.Batch,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *server) handleRunGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type runStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req runStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	run, err := s.ledger.Transition(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
