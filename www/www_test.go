package www

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angas/sacplot/config"
	"github.com/angas/sacplot/database"
	"github.com/angas/sacplot/plot"
	"github.com/angas/sacplot/www/chartjs"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fakeFigures struct {
	src plot.Source
}

func (f fakeFigures) Source() plot.Source { return f.src }

func (f fakeFigures) Current() (plot.Figure, error) { return f.src.Load() }

func (f fakeFigures) WithWindow(window int) (plot.Figure, error) {
	return f.src.WithWindow(window).Load()
}

type fakeLog struct {
	entries []database.LogEntryRow
}

func (f fakeLog) GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error) {
	return f.entries, nil
}

func writeTrainLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n1,1\n2,2\n3,3\n4,4\n"), 0644))
	return path
}

func newTestServer(t *testing.T, src plot.Source, db LogReader) *Server {
	t.Helper()
	s, err := StartServer(fakeFigures{src: src}, db, config.AppConfigApi{SessionKey: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChart(t *testing.T) {
	s := newTestServer(t, plot.Source{Kind: plot.KindTrain, Path: writeTrainLog(t), Window: 1}, nil)

	rec := get(t, s.Handler(), "/chart?smooth=3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var chart chartjs.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Equal(t, []float64{1, 2, 3, 4}, chart.Data.Labels)
	require.Len(t, chart.Data.Datasets, 2)
	require.Equal(t, "Smoothed (k=3)", chart.Data.Datasets[1].Label)
}

func TestSummaryRemembersWindow(t *testing.T) {
	s := newTestServer(t, plot.Source{Kind: plot.KindTrain, Path: writeTrainLog(t), Window: 1}, nil)

	rec := get(t, s.Handler(), "/summary?smooth=4")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	var sum plot.Summary
	rec = get(t, s.Handler(), "/summary", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, 4, sum.Window)
	require.Equal(t, 4, sum.Rows)
	require.Equal(t, 2.5, sum.LastSmoothed)

	rec = get(t, s.Handler(), "/summary")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, 1, sum.Window)
	require.Equal(t, 4.0, sum.LastSmoothed)
}

func TestMissingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.csv")
	s := newTestServer(t, plot.Source{Kind: plot.KindEval, Path: path, Window: 1}, nil)

	rec := get(t, s.Handler(), "/chart")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), plot.KindEval.Hint())

	require.NoError(t, os.WriteFile(path, []byte("step,avg_return,alpha\n"), 0644))
	rec = get(t, s.Handler(), "/summary")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "no data")

	rec = get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "waiting for")
}

func TestIndex(t *testing.T) {
	path := writeTrainLog(t)
	s := newTestServer(t, plot.Source{Kind: plot.KindTrain, Path: path, Window: 2}, nil)

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, path)
	require.Contains(t, body, "smoothed (k=2)")
	require.NotContains(t, body, `href="log"`)

	require.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/nope").Code)
	require.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/log").Code)
}

func TestLogPage(t *testing.T) {
	db := fakeLog{entries: []database.LogEntryRow{
		{Timestamp: time.Now(), Level: int(slog.LevelWarn), Message: "reload failed", Attrs: "path=train.csv"},
	}}
	s := newTestServer(t, plot.Source{Kind: plot.KindTrain, Path: writeTrainLog(t), Window: 1}, db)

	rec := get(t, s.Handler(), "/log?pageSize=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "reload failed")
	require.Contains(t, body, "WARN")
	require.Contains(t, body, "older")

	require.Contains(t, get(t, s.Handler(), "/").Body.String(), `href="log"`)
}

func TestNotify(t *testing.T) {
	src := plot.Source{Kind: plot.KindTrain, Path: writeTrainLog(t), Window: 1}
	s := newTestServer(t, src, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	fig, err := src.Load()
	require.NoError(t, err)
	s.Notify(fig)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type    string       `json:"type"`
		Summary plot.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	require.Equal(t, "reload", got.Type)
	require.Equal(t, 4, got.Summary.Rows)
}

func TestURL(t *testing.T) {
	addr, port := "0.0.0.0", 9000
	s := &Server{config: config.AppConfigApi{Address: &addr, Port: &port}}
	require.Equal(t, "http://localhost:9000/", s.URL())

	s = &Server{}
	require.Equal(t, "http://127.0.0.1:8090/", s.URL())
}

func TestRenderStandalone(t *testing.T) {
	fig, err := plot.Source{Kind: plot.KindTrain, Path: writeTrainLog(t), Window: 2}.Load()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderStandalone(&buf, fig))
	out := buf.String()
	require.Contains(t, out, "new Chart(")
	require.Contains(t, out, "Smoothed (k=2)")
	require.Contains(t, out, "chart.umd.min.js")
}

func TestNonFiniteValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n1,1\n2,2\nnan,4\n3,nan\n"), 0644))
	src := plot.Source{Kind: plot.KindTrain, Path: path, Window: 1}
	s := newTestServer(t, src, nil)

	rec := get(t, s.Handler(), "/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lastValue":null`)

	var sum plot.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, 3, sum.Rows)
	require.Equal(t, 1, sum.Skipped)

	rec = get(t, s.Handler(), "/chart?smooth=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.Bytes())

	fig, err := src.Load()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RenderStandalone(&buf, fig))
	require.Contains(t, buf.String(), "new Chart(")
}

func TestMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("step,reward\n1,1\n"), 0644))
	s := newTestServer(t, plot.Source{Kind: plot.KindTrain, Path: path, Window: 1}, nil)

	rec := get(t, s.Handler(), "/chart")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "episode_return")
}

func TestTwoDecimalsFunc(t *testing.T) {
	twoDecimals := funcMap["TwoDecimals"].(func(float64) string)
	require.Equal(t, "2.50", twoDecimals(2.499))
	require.Equal(t, "-170.12", twoDecimals(-170.123456))
}
