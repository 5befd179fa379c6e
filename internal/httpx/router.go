package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelcm/marketing-intel/internal/export"
	"github.com/angelcm/marketing-intel/internal/ingest"
	"github.com/angelcm/marketing-intel/internal/pipeline"
	"github.com/angelcm/marketing-intel/internal/report"
	"github.com/angelcm/marketing-intel/internal/store"
	"github.com/angelcm/marketing-intel/internal/telemetry"
	"github.com/angelcm/marketing-intel/internal/utils"
)

// maxUpload bounds a multipart upload request.
const maxUpload = 64 << 20

// builtinFields are upload fields that name a channel directly.
var builtinFields = map[string]bool{"facebook": true, "google": true, "tiktok": true}

type Deps struct {
	Store    *store.MemoryStore
	ETL      *ingest.ETL
	Reports  *report.Service
	Exporter *export.Exporter
}

func NewRouter(log *slog.Logger, d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(telemetry.Middleware)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !d.Store.Loaded() {
			http.Error(w, "no dataset loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/datasets/load", func(w http.ResponseWriter, r *http.Request) {
		ds, err := d.ETL.Run(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, datasetInfo(ds.ID, ds.Channels(), len(ds.Business.Records)))
	})

	mux.Post("/datasets/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads, closeAll, err := readUploads(r)
		defer closeAll()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ds, err := d.ETL.Ingest(uploads)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, datasetInfo(ds.ID, ds.Channels(), len(ds.Business.Records)))
	})

	mux.Get("/report", func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Reports.Run(r.URL.Query())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, res)
	})

	mux.Get("/report/{table}", func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Reports.Table(chi.URLParam(r, "table"), r.URL.Query())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, v)
	})

	mux.Post("/export/run", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := d.Reports.ParseQuery(r.URL.Query())
		if err != nil {
			writeError(w, log, err)
			return
		}
		res, err := d.Reports.RunFilter(f)
		if err != nil {
			writeError(w, log, err)
			return
		}
		n, err := d.Exporter.Export(r.Context(), res.DatasetID, res.Report)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"exported": n, "dataset_id": res.DatasetID})
	})

	return mux
}

func datasetInfo(id string, channels []string, businessRows int) map[string]any {
	return map[string]any{"dataset_id": id, "channels": channels, "business_rows": businessRows}
}

// readUploads maps multipart file fields onto uploads: facebook, google and
// tiktok name their channel, business is the business table, and
// channel:<name> adds any other channel.
func readUploads(r *http.Request) ([]ingest.Upload, func(), error) {
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return nil, closeAll, err
	}
	fields := make([]string, 0, len(r.MultipartForm.File))
	for k := range r.MultipartForm.File {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var out []ingest.Upload
	for _, field := range fields {
		u := ingest.Upload{}
		key := strings.ToLower(strings.TrimSpace(field))
		switch {
		case key == "business":
			u.Business = true
		case builtinFields[key]:
			u.Channel = key
		case strings.HasPrefix(key, "channel:") && len(key) > len("channel:"):
			u.Channel = strings.TrimPrefix(key, "channel:")
		default:
			return nil, closeAll, errors.New("unknown upload field " + field)
		}
		for _, fh := range r.MultipartForm.File[field] {
			f, err := fh.Open()
			if err != nil {
				return nil, closeAll, err
			}
			closers = append(closers, f.Close)
			u.Name, u.Body = fh.Filename, f
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil, closeAll, errors.New("no files uploaded")
	}
	return out, closeAll, nil
}

// statusOf maps domain errors onto HTTP codes.
func statusOf(err error) int {
	var le *ingest.LoadError
	var de *ingest.DateParseError
	var ve *ingest.ValidationError
	switch {
	case errors.Is(err, store.ErrNoDataset), errors.Is(err, pipeline.ErrNoSources):
		return http.StatusConflict
	case errors.Is(err, report.ErrUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, report.ErrBadQuery), errors.Is(err, pipeline.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.As(err, &le), errors.As(err, &de), errors.As(err, &ve),
		errors.Is(err, ingest.ErrNoSources), errors.Is(err, ingest.ErrEmptySource):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func sourceOf(err error) string {
	var le *ingest.LoadError
	var de *ingest.DateParseError
	var ve *ingest.ValidationError
	switch {
	case errors.As(err, &de):
		return de.Source
	case errors.As(err, &ve):
		return ve.Source
	case errors.As(err, &le):
		return le.Source
	}
	return ""
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	code := statusOf(err)
	if code >= 500 {
		log.Error("request failed", slog.String("err", err.Error()))
	}
	body := map[string]any{"error": err.Error()}
	if src := sourceOf(err); src != "" {
		body["source"] = src
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
