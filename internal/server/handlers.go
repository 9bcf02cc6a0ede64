package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/forPelevin/audioconv/internal/ports/adapters/notifier"
	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/forPelevin/audioconv/internal/types"
	"github.com/gorilla/mux"
)

const maxRequestBody = 64 << 10

type engineResponse struct {
	State    string             `json:"state"`
	Version  string             `json:"version,omitempty"`
	Advisory *notifier.Advisory `json:"advisory,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONStatus(w, "ok")
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req types.ConversionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	format, err := types.ParseFormat(string(req.Format))
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Format = format
	req = req.WithDefaults()

	log := s.log.WithField("input", req.InputPath)
	job, err := s.ctrl.Convert(s.baseCtx, req, func(p types.Progress) {
		log.WithField("percent", p.Percent).Debug(p.Message)
	})
	if err != nil {
		s.writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	s.hist.add(job)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/jobs/"+job.ID)
	w.WriteHeader(http.StatusAccepted)
	s.writeJSON(w, job.Snapshot())
}

func (s *Server) listJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := s.hist.list()
	snaps := make([]types.JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		snaps = append(snaps, j.Snapshot())
	}
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, map[string]any{"jobs": snaps})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.hist.get(mux.Vars(r)["id"])
	if !ok {
		s.writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, job.Snapshot())
}

// cancelJob requests cancellation and waits, bounded by the request, for the
// job to settle so the response carries its final state.
func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.hist.get(mux.Vars(r)["id"])
	if !ok {
		s.writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	job.Cancel()
	select {
	case <-job.Done():
	case <-r.Context().Done():
	}
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, job.Snapshot())
}

func (s *Server) engine(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, s.engineState())
}

func (s *Server) reprobe(w http.ResponseWriter, r *http.Request) {
	if s.ctrl.Reprobe(r.Context()) == transcode.Available && s.adv != nil {
		s.adv.Clear()
	}
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, s.engineState())
}

func (s *Server) engineState() engineResponse {
	resp := engineResponse{
		State:   s.ctrl.Availability().String(),
		Version: s.ctrl.EngineVersion(),
	}
	if s.adv != nil && s.ctrl.Availability() == transcode.Unavailable {
		if a, ok := s.adv.Latest(); ok {
			resp.Advisory = &a
		}
	}
	return resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, transcode.ErrInvalidRequest), errors.Is(err, types.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, transcode.ErrInputNotFound):
		return http.StatusNotFound
	case errors.Is(err, transcode.ErrJobInProgress):
		return http.StatusConflict
	case errors.Is(err, transcode.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
