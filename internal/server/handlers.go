package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/phasehull/pkg/buildinfo"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	phio "github.com/matzehuels/phasehull/pkg/io"
	"github.com/matzehuels/phasehull/pkg/observability"
	"github.com/matzehuels/phasehull/pkg/pipeline"
)

// Request is the body of every /v1 endpoint. Dataset and Series use the
// file formats read by the io package. /v1/chempot accepts either a dataset
// or a series plus Temperature.
type Request struct {
	Dataset     json.RawMessage  `json:"dataset,omitempty"`
	Series      json.RawMessage  `json:"series,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	Options     pipeline.Options `json:"options"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleHull(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	ds, err := readDataset(req.Dataset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Runner.Analyze(r.Context(), ds, s.options(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	series, err := readSeries(req.Series)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Runner.Sweep(r.Context(), series, s.options(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChemPot(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	var ds *phio.Dataset
	var err error
	switch {
	case len(req.Series) > 0:
		if req.Temperature == nil {
			s.writeError(w, r, perr.New(perr.ErrCodeInvalidInput, "temperature is required with a series"))
			return
		}
		var series *phio.Series
		if series, err = readSeries(req.Series); err == nil {
			ds, err = pipeline.SeriesDataset(series, *req.Temperature)
		}
	default:
		ds, err = readDataset(req.Dataset)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.cfg.Runner.ChemPot(r.Context(), ds, s.options(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, perr.Wrap(perr.ErrCodeInvalidFormat, err, "decode request"))
		return nil, false
	}
	return &req, true
}

// options layers the request options over the server defaults.
func (s *Server) options(req *Request) pipeline.Options {
	o := req.Options
	d := s.cfg.Defaults
	if o.Tolerance == 0 {
		o.Tolerance = d.Tolerance
	}
	if o.WarnFactor == 0 {
		o.WarnFactor = d.WarnFactor
	}
	if o.TTL == 0 {
		o.TTL = d.TTL
	}
	return o
}

func readDataset(raw json.RawMessage) (*phio.Dataset, error) {
	if len(raw) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidInput, "dataset is required")
	}
	return phio.ReadDataset(bytes.NewReader(raw))
}

func readSeries(raw json.RawMessage) (*phio.Series, error) {
	if len(raw) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidInput, "series is required")
	}
	return phio.ReadSeries(bytes.NewReader(raw))
}

// StatusCode maps an error code to its HTTP status.
func StatusCode(code perr.Code) int {
	switch code {
	case perr.ErrCodeInvalidInput, perr.ErrCodeInvalidComposition, perr.ErrCodeInvalidFormat,
		perr.ErrCodeMissingTerminal, perr.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case perr.ErrCodeDegenerateInput, perr.ErrCodeOutOfRange, perr.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case perr.ErrCodeNotFound, perr.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := perr.GetCode(err)
	if code == "" {
		code = perr.ErrCodeInternal
	}
	status := StatusCode(code)
	msg := perr.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
		if code == perr.ErrCodeInternal {
			msg = "internal server error"
		}
	}
	observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: msg, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
