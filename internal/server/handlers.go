package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/incapscan/internal/pipeline"
	"github.com/nao1215/incapscan/internal/workspace"
)

// Client-facing messages.
const (
	msgHealthy          = "API Forense activa"
	msgUnsupportedType  = "Formato no soportado, ingrese PDF o Imagen"
	msgMissingFile      = "Campo 'file' requerido"
	msgInvalidMultipart = "Solicitud multipart inválida"
	msgTooLarge         = "El documento excede el tamaño máximo permitido"
	msgEmptyDocument    = "El documento está vacío"
)

// fileField is the multipart field carrying the document.
const fileField = "file"

// multipartOverhead leaves room for part headers and boundaries on top of
// the document size limit.
const multipartOverhead = 1 << 20

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: msgHealthy})
}

// handleAnalyze stages the uploaded file, runs the analysis and returns
// the envelope. The staged copy is removed before the response is sent.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pipeline.RequestIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidMultipart)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeDetail(w, http.StatusUnprocessableEntity, msgMissingFile)
			return
		}
		if err != nil {
			s.writeStageError(w, id, err)
			return
		}
		if part.FormName() != fileField {
			_ = part.Close()
			continue
		}

		ext, err := model.ExtensionForMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			s.logger.Info("upload rejected", "request_id", id, "content_type", part.Header.Get("Content-Type"))
			writeDetail(w, http.StatusBadRequest, msgUnsupportedType)
			return
		}

		s.analyzePart(ctx, w, part, uploadName(part.FileName(), ext))
		return
	}
}

func (s *Server) analyzePart(ctx context.Context, w http.ResponseWriter, body io.Reader, name string) {
	id := pipeline.RequestIDFromContext(ctx)

	actx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()

	var report *model.ForensicReport
	err := workspace.WithDocument(actx, name, body, s.maxUploadSize, func(path string) error {
		report = s.analyzer.Analyze(actx, path)
		return nil
	})
	if err != nil {
		s.writeStageError(w, id, err)
		return
	}

	if s.recorder != nil {
		if _, err := s.recorder.SaveAnalysis(ctx, report); err != nil {
			s.logger.Warn("audit record failed", "request_id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, report.Envelope())
}

// writeStageError maps upload and staging failures to responses.
func (s *Server) writeStageError(w http.ResponseWriter, id string, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, workspace.ErrTooLarge):
		writeDetail(w, http.StatusRequestEntityTooLarge, msgTooLarge)
	case errors.Is(err, workspace.ErrEmptyDocument):
		writeDetail(w, http.StatusBadRequest, msgEmptyDocument)
	default:
		s.logger.Error("analysis request failed", "request_id", id, "error", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// uploadName sanitizes the client file name and makes sure its extension
// matches the declared media type, since the extractor dispatches on it.
func uploadName(filename, ext string) string {
	name := workspace.SanitizeName(filename)
	current := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if current == ext || (ext == "jpg" && current == "jpeg") {
		return name
	}
	return name + "." + ext
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
