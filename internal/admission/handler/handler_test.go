package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"abitur/internal/admission/engine"
	"abitur/internal/admission/models"
	"abitur/internal/admission/service"
	"abitur/internal/admission/store"
	"abitur/internal/ingest"
	"abitur/internal/platform/middleware"
)

func testCampaign() ingest.Campaign {
	return ingest.Campaign{
		Programs: []models.Program{
			{Code: "PM", Name: "Applied Math", Seats: 1},
			{Code: "IVT", Name: "Informatics", Seats: 1},
		},
		Days: []ingest.CampaignDay{
			{Day: "2025-08-01", Label: "01.08", Folder: "day_01"},
		},
	}
}

func newTestServer(t *testing.T, validator middleware.TokenValidator) (*httptest.Server, string) {
	t.Helper()
	campaign := testCampaign()
	eng, err := engine.New(campaign.Programs, engine.Policy{})
	require.NoError(t, err)
	svc, err := service.New(eng, store.NewInMemory())
	require.NoError(t, err)

	dataDir := t.TempDir()
	h := New(svc, campaign, dataDir)
	srv := httptest.NewServer(h.Router(validator))
	t.Cleanup(srv.Close)
	return srv, dataDir
}

func snapshotBody(t *testing.T) *bytes.Reader {
	t.Helper()
	consent := models.ProgramID("PM")
	raw, err := json.Marshal(models.DaySnapshot{
		Day: "2025-08-01",
		Records: []models.ApplicantRecord{
			{
				ID:    100001,
				Score: models.Score{PhysicsIT: 90, Russian: 90, Math: 95, Achievements: 5, Total: 280},
				Priorities: []models.ProgramPriority{
					{Program: "PM", Rank: 1},
					{Program: "IVT", Rank: 2},
				},
				Consent: &consent,
			},
			{
				ID:         100002,
				Score:      models.Score{PhysicsIT: 80, Russian: 85, Math: 90, Total: 255},
				Priorities: []models.ProgramPriority{{Program: "PM", Rank: 1}},
			},
		},
	})
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func postSnapshot(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/snapshots", "application/json", snapshotBody(t))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestApplySnapshotAndQuery(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	postSnapshot(t, srv)

	var days struct {
		Days []models.Day `json:"days"`
	}
	resp := getJSON(t, srv.URL+"/api/days", &days)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []models.Day{"2025-08-01"}, days.Days)

	var cutoffs struct {
		Cutoffs []models.Cutoff `json:"cutoffs"`
	}
	resp = getJSON(t, srv.URL+"/api/days/latest/cutoffs", &cutoffs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, cutoffs.Cutoffs, 2)
	require.True(t, cutoffs.Cutoffs[0].Defined())
	require.Equal(t, 280, *cutoffs.Cutoffs[0].Score)

	var page service.RankingPage
	resp = getJSON(t, srv.URL+"/api/days/2025-08-01/programs/PM/ranking?page=1&page_size=1", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Entries, 1)
	require.Equal(t, models.ApplicantID(100001), page.Entries[0].ApplicantID)
}

func TestApplySnapshotViolationEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	postSnapshot(t, srv)

	// Restate the same applicant with a mutated total on the next day.
	consent := models.ProgramID("PM")
	raw, err := json.Marshal(models.DaySnapshot{
		Day: "2025-08-02",
		Records: []models.ApplicantRecord{
			{
				ID:    100001,
				Score: models.Score{PhysicsIT: 90, Russian: 90, Math: 95, Achievements: 6, Total: 281},
				Priorities: []models.ProgramPriority{
					{Program: "PM", Rank: 1},
					{Program: "IVT", Rank: 2},
				},
				Consent: &consent,
			},
			{
				ID:         100002,
				Score:      models.Score{PhysicsIT: 80, Russian: 85, Math: 90, Total: 255},
				Priorities: []models.ProgramPriority{{Program: "PM", Rank: 1}},
			},
		},
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/snapshots", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error       string `json:"error"`
		ApplicantID int64  `json:"applicant_id"`
		Rule        string `json:"rule"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "score_mutated", body.Error)
	require.Equal(t, int64(100001), body.ApplicantID)
	require.Equal(t, "score_mutated", body.Rule)
}

func TestImportDayFromDataDir(t *testing.T) {
	srv, dataDir := newTestServer(t, nil)

	folder := filepath.Join(dataDir, "day_01")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	header := "applicant_id,consent,priority,physics_ikt,russian,math,achievements,total\n"
	require.NoError(t, os.WriteFile(filepath.Join(folder, "PM.csv"),
		[]byte(header+"100001,1,1,90,90,95,5,280\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "IVT.csv"),
		[]byte(header+"100002,0,1,80,85,90,0,255\n"), 0o644))

	resp, err := http.Post(srv.URL+"/api/days/2025-08-01/import", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result models.DayResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, models.Day("2025-08-01"), result.Day)
	require.Len(t, result.Unified, 2)
}

func TestReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	postSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/days/latest/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	report := buf.String()
	require.Contains(t, report, "ADMISSION REPORT")
	require.Contains(t, report, "CUTOFF DYNAMICS")
	require.True(t, strings.Contains(report, "admitted to PM"))
}

func TestQueryBeforeAnyDay(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp := getJSON(t, srv.URL+"/api/days/latest/cutoffs", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResetRequiresAuth(t *testing.T) {
	key := "test-signing-key"
	srv, _ := newTestServer(t, middleware.NewHMACValidator(key))

	resp, err := http.Post(srv.URL+"/api/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admissions-office",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/reset", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}
