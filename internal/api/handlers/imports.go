package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"stop-route-service/internal/api/dto"
	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"
	"stop-route-service/internal/services"

	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

// ImportHandler starts, reports and cancels background bulk imports.
type ImportHandler struct {
	Planner *services.Planner
	Parser  ports.TabularParser
	Log     *zap.Logger
}

// Start accepts either a multipart upload (file plus buyer, town and address
// column names and an optional replace flag) or a JSON ImportRequest.
func (h *ImportHandler) Start(w http.ResponseWriter, r *http.Request) {
	rows, replace, ok := h.readRows(w, r)
	if !ok {
		return
	}

	err := h.Planner.StartImport(r.Context(), rows, services.ImportOptions{Replace: replace})
	if err != nil {
		writeServiceError(w, r, h.Log, "start import", err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, h.Planner.ImportStatus())
}

func (h *ImportHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Planner.ImportStatus())
}

func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.Planner.CancelImport() {
		writeError(w, r, http.StatusConflict, "no import is running")
		return
	}
	writeJSON(w, r, http.StatusAccepted, h.Planner.ImportStatus())
}

func (h *ImportHandler) readRows(w http.ResponseWriter, r *http.Request) ([]domain.ImportRow, bool, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req dto.ImportRequest
		if !decodeJSON(w, r, &req) {
			return nil, false, false
		}
		return req.Rows, req.Replace, true
	}

	if h.Parser == nil {
		writeError(w, r, http.StatusUnsupportedMediaType, "file import is not configured")
		return nil, false, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "expected multipart form with a file field")
		return nil, false, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return nil, false, false
	}
	defer file.Close()

	replace := false
	if v := strings.TrimSpace(r.FormValue("replace")); v != "" {
		if replace, err = strconv.ParseBool(v); err != nil {
			writeError(w, r, http.StatusBadRequest, "replace must be a boolean")
			return nil, false, false
		}
	}

	table, err := h.Parser.Parse(header.Filename, file)
	if err != nil {
		h.Log.Info("import file rejected", zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "could not read spreadsheet")
		return nil, false, false
	}

	rows, err := services.MapRows(table, services.ColumnMapping{
		Buyer:   r.FormValue("buyer"),
		Town:    r.FormValue("town"),
		Address: r.FormValue("address"),
	})
	if err != nil {
		writeServiceError(w, r, h.Log, "map import columns", err)
		return nil, false, false
	}
	return rows, replace, true
}
