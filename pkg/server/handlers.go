package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	errs "github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// contentTypes maps output formats to response media types.
var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

// handleFamily lays out the family of the protocol in the URL path.
func (s *Server) handleFamily(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.ProtocolKey = chi.URLParam(r, "protocolKey")

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("X-Cache", cacheStatus(result.CacheInfo))
	w.Header().Set("X-Family-People", strconv.Itoa(result.Stats.People))
	if result.Family.Truncated {
		w.Header().Set("X-Family-Truncated", "true")
	}
	writeArtifact(w, format, result.Artifacts[format])
}

// handleLayout lays out the family document in the request body.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	doc, err := kio.ReadPersons(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStatus(w, r, http.StatusRequestEntityTooLarge,
				errs.New(errs.ErrCodeInvalidDocument, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, err)
		return
	}
	res, layoutHit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), doc.People, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	artifacts, renderHit, err := s.runner.RenderWithCacheInfo(r.Context(), res, doc.People, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("X-Cache", cacheStatus(pipeline.CacheInfo{LoadHit: true, LayoutHit: layoutHit, RenderHit: renderHit}))
	writeArtifact(w, format, artifacts[format])
}

// requestOptions starts from the server defaults and applies the query.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Logger = s.logger
	opts.Input = ""

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = DefaultFormat
	}
	if err := errs.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}

	if v := q.Get("focus"); v != "" {
		opts.Focus = v
	}
	if v := q.Get("scope"); v != "" {
		opts.Scope = v
	}
	if v := q.Get("view"); v != "" {
		opts.View = v
	}
	if v := q.Get("locale"); v != "" {
		opts.Locale = v
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "invalid refresh value %q", v)
		}
		opts.Refresh = refresh
	}

	if err := opts.ValidateForLayout(); err != nil {
		return opts, err
	}
	return opts, opts.ValidateForRender()
}

func cacheStatus(info pipeline.CacheInfo) string {
	if info.LoadHit && info.LayoutHit && info.RenderHit {
		return "hit"
	}
	return "miss"
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
