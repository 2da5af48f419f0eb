package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mockup/pkg/composite"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/pipeline"
	"github.com/matzehuels/mockup/pkg/svgexport"
)

type decodeRequest struct {
	FilePath string `json:"filePath"`
}

type mergeRequest struct {
	FilePaths []string `json:"filePaths"`
	FileName  string   `json:"fileName"`
}

type downloadData struct {
	Path   string   `json:"path"`
	Failed []string `json:"failed,omitempty"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		writeReply(w, pipeline.Fail(errors.New(errors.ErrCodeInvalidInput, "filePath is required")))
		return
	}
	writeReply(w, pipeline.DecodeReply(s.runner.Decode(r.Context(), req.FilePath)))
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeReply(w, pipeline.MergeReply(s.runner.Merge(r.Context(), req.FilePaths, req.FileName)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req composite.Request
	if !decodeBody(w, r, &req) {
		return
	}
	writeReply(w, pipeline.ExportReply(s.runner.Export(r.Context(), req)))
}

func (s *Server) handleDownloadSVG(w http.ResponseWriter, r *http.Request) {
	var doc layer.Document
	if !decodeBody(w, r, &doc) {
		return
	}
	path, failed, err := s.runner.DownloadSVG(r.Context(), &doc)
	if err != nil {
		writeReply(w, pipeline.Fail(err))
		return
	}
	writeReply(w, pipeline.OK(pipeline.MsgDownload, downloadData{Path: path, Failed: failureNames(failed)}))
}

func failureNames(failed []svgexport.Failure) []string {
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Name
	}
	return names
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		writeReply(w, noCatalog())
		return
	}
	list, err := s.templates.List(r.Context())
	if err != nil {
		writeReply(w, pipeline.Fail(err))
		return
	}
	writeReply(w, pipeline.OK(pipeline.MsgFound, list))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		writeReply(w, noCatalog())
		return
	}
	t, err := s.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeReply(w, pipeline.Fail(err))
		return
	}
	writeReply(w, pipeline.OK(pipeline.MsgFound, t))
}

func noCatalog() pipeline.Reply {
	return pipeline.Fail(errors.New(errors.ErrCodeUnsupported, "no template catalog configured"))
}
