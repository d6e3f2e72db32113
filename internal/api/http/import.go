package http

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/edupulse/quizbot/internal/importer"
)

const maxImportBytes = 10 << 20

// POST /import with a multipart "file" part (.csv or .json).
func ImportHandler(svc *importer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			http.Error(w, "bad multipart form", 400)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file part required", 400)
			return
		}
		defer file.Close()

		var rep importer.Report
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".csv":
			rep, err = svc.ImportCSV(r.Context(), file)
		case ".json":
			rep, err = svc.ImportJSON(r.Context(), file)
		default:
			http.Error(w, "only .csv and .json are supported", 400)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(rep)
	}
}
