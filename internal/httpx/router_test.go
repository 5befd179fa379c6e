package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-intel/internal/export"
	"github.com/angelcm/marketing-intel/internal/ingest"
	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/report"
	"github.com/angelcm/marketing-intel/internal/store"
)

const (
	fbCSV  = "date,campaign,state,tactic,impression,clicks,spend,attributed revenue\n2024-01-01,Spring,NY,ASC,1000,20,100,300\n2024-01-02,Spring,CA,ASC,500,5,50,40\n"
	ggCSV  = "date,campaign,state,tactic,impressions,clicks,spend,attributed_revenue\n2024-01-01,Brand,NY,Search,2000,60,300,900\n"
	bizCSV = "date,# of orders,# of new orders,new customers,total revenue,gross profit,COGS\n2024-01-01,8,6,4,1600,400,1200\n2024-01-02,2,1,1,200,50,150\n"
)

type harness struct {
	h    http.Handler
	st   *store.MemoryStore
	sink *httptest.Server
	got  chan []byte
}

func newHarness(t *testing.T, set ingest.SourceSet) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hs := &harness{st: store.NewMemoryStore(), got: make(chan []byte, 1)}
	hs.sink = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if r.Header.Get(export.SignatureHeader) != export.Sign("secret", b) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		hs.got <- b
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(hs.sink.Close)

	cl := ingest.NewHTTPClient(2 * time.Second)
	loader := ingest.NewLoader(cl, log, ingest.PolicyClamp)
	hs.h = NewRouter(log, Deps{
		Store:    hs.st,
		ETL:      ingest.NewETL(loader, hs.st, log, set),
		Reports:  report.NewService(hs.st),
		Exporter: export.NewExporter(cl, hs.sink.URL, "secret", log),
	})
	return hs
}

func fixtures(t *testing.T) ingest.SourceSet {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	return ingest.SourceSet{
		Marketing: []ingest.Source{
			{Name: "facebook", Channel: "facebook", Location: write("facebook.csv", fbCSV)},
			{Name: "google", Channel: "google", Location: write("google.csv", ggCSV)},
		},
		Business: ingest.Source{Name: "business", Location: write("business.csv", bizCSV)},
	}
}

func (hs *harness) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	hs.h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReadiness(t *testing.T) {
	hs := newHarness(t, fixtures(t))
	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/healthz", nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, hs.do(http.MethodGet, "/readyz", nil, "").Code)

	require.Equal(t, http.StatusOK, hs.do(http.MethodPost, "/datasets/load", nil, "").Code)
	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/readyz", nil, "").Code)

	rr := hs.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "mktintel_source_loads_total")
}

func TestReportRequiresDataset(t *testing.T) {
	hs := newHarness(t, fixtures(t))
	rr := hs.do(http.MethodGet, "/report", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLoadAndQuery(t *testing.T) {
	hs := newHarness(t, fixtures(t))
	rr := hs.do(http.MethodPost, "/datasets/load", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var info map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, []any{"facebook", "google"}, info["channels"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = hs.do(http.MethodGet, "/report/channels?from=2024-01-01&to=2024-01-01", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var channels []models.AggRow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &channels))
	require.Len(t, channels, 2)
	assert.Equal(t, "google", channels[0].Key.Channel)
	assert.InDelta(t, 3.0, channels[0].Metric("roas"), 1e-9)

	rr = hs.do(http.MethodGet, "/report/summary?channel=facebook", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var sum models.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, 150.0, sum.Spend)
	assert.Equal(t, 10.0, sum.Orders)

	rr = hs.do(http.MethodGet, "/report?channel=snapchat", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var full struct {
		DatasetID string `json:"dataset_id"`
		Empty     bool   `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &full))
	assert.True(t, full.Empty)
	assert.NotEmpty(t, full.DatasetID)
}

func TestQueryErrors(t *testing.T) {
	hs := newHarness(t, fixtures(t))
	require.Equal(t, http.StatusOK, hs.do(http.MethodPost, "/datasets/load", nil, "").Code)

	assert.Equal(t, http.StatusBadRequest, hs.do(http.MethodGet, "/report?from=yesterday", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, hs.do(http.MethodGet, "/report?from=2024-02-01&to=2024-01-01", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/report/cohorts", nil, "").Code)
}

func TestLoadFailureNamesSource(t *testing.T) {
	set := fixtures(t)
	bad := filepath.Join(t.TempDir(), "tiktok.csv")
	require.NoError(t, os.WriteFile(bad, []byte("date,spend\nsoon,1\nlater,2\n"), 0o644))
	set.Marketing = append(set.Marketing, ingest.Source{Name: "tiktok", Channel: "tiktok", Location: bad})

	hs := newHarness(t, set)
	rr := hs.do(http.MethodPost, "/datasets/load", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "tiktok", body["source"])
	assert.False(t, hs.st.Loaded())
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, body := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	hs := newHarness(t, ingest.SourceSet{})
	body, ct := multipartBody(t, map[string]string{
		"facebook":         fbCSV,
		"channel:Snapchat": ggCSV,
		"business":         bizCSV,
	})
	rr := hs.do(http.MethodPost, "/datasets/upload", body, ct)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	ds, err := hs.st.Current()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"facebook", "snapchat"}, ds.Channels())
	assert.Len(t, ds.Business.Records, 2)

	body, ct = multipartBody(t, map[string]string{"pinterest": fbCSV})
	assert.Equal(t, http.StatusBadRequest, hs.do(http.MethodPost, "/datasets/upload", body, ct).Code)
}

func TestExportRun(t *testing.T) {
	hs := newHarness(t, fixtures(t))
	require.Equal(t, http.StatusOK, hs.do(http.MethodPost, "/datasets/load", nil, "").Code)

	rr := hs.do(http.MethodPost, "/export/run?from=2024-01-01&to=2024-01-02", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, float64(2), res["exported"])

	var p export.Payload
	require.NoError(t, json.Unmarshal(<-hs.got, &p))
	assert.Equal(t, "2024-01-01", p.From)
	assert.Len(t, p.Daily, 2)
}

func TestReportWithBusinessOnlyDataset(t *testing.T) {
	hs := newHarness(t, ingest.SourceSet{})
	body, ct := multipartBody(t, map[string]string{"business": bizCSV})
	require.Equal(t, http.StatusOK, hs.do(http.MethodPost, "/datasets/upload", body, ct).Code)

	assert.Equal(t, http.StatusConflict, hs.do(http.MethodGet, "/report", nil, "").Code)
	assert.Equal(t, http.StatusConflict, hs.do(http.MethodGet, "/report/summary", nil, "").Code)
}

func TestUploadSameChannelTwice(t *testing.T) {
	hs := newHarness(t, ingest.SourceSet{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, csv := range map[string]string{"fb-a.csv": fbCSV, "fb-b.csv": fbCSV} {
		fw, err := mw.CreateFormFile("facebook", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(csv))
		require.NoError(t, err)
	}
	fw, err := mw.CreateFormFile("business", "business.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(bizCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr := hs.do(http.MethodPost, "/datasets/upload", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	ds, err := hs.st.Current()
	require.NoError(t, err)
	require.Len(t, ds.Marketing, 1)
	assert.Len(t, ds.Marketing[0].Records, 4)
}
