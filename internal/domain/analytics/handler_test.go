package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medassist/medassist/internal/llm"
)

type mockRepo struct {
	patients *PatientStats
	queries  *QueryStats
	payments *PaymentStats
	fail     bool
}

func (m *mockRepo) err() error {
	if m.fail {
		return errors.New("db unavailable")
	}
	return nil
}

func (m *mockRepo) PatientStats(context.Context) (*PatientStats, error) {
	return m.patients, m.err()
}

func (m *mockRepo) QueryStats(context.Context) (*QueryStats, error) {
	return m.queries, m.err()
}

func (m *mockRepo) PaymentStats(context.Context) (*PaymentStats, error) {
	return m.payments, m.err()
}

func (m *mockRepo) AgeGroups(context.Context) (map[string]int, error) {
	return map[string]int{"0-18": 1, "19-35": 2, "36-50": 0, "51-65": 3, "65+": 1}, m.err()
}

func (m *mockRepo) TopConditions(_ context.Context, limit int) ([]NameCount, error) {
	out := []NameCount{{Name: "hypertension", Value: 4}, {Name: "diabetes", Value: 2}}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, m.err()
}

func (m *mockRepo) TopMedications(context.Context, int) ([]NameCount, error) {
	return []NameCount{{Name: "Metformin", Value: 3}}, m.err()
}

func (m *mockRepo) QueryTrend(context.Context, int) ([]DailyCount, error) {
	return []DailyCount{{Date: "2026-08-30", Count: 5}, {Date: "2026-08-31", Count: 8}}, m.err()
}

type staticBackend struct{ st llm.Status }

func (s staticBackend) Status() llm.Status { return s.st }

func newTestRepo() *mockRepo {
	return &mockRepo{
		patients: &PatientStats{
			Total: 7, Recent: 2,
			GenderDistribution: GenderDistribution{Male: 3, Female: 3, Other: 1},
			AverageAge:         44,
		},
		queries: &QueryStats{
			Total: 20, Recent: 5, AvgConfidence: 0.72,
			AvgProcessingTimeMs: 1200, AvgTokensUsed: 140,
			ByType: map[string]int{"rag": 18, "unknown": 2},
		},
		payments: &PaymentStats{
			Total: 4, Recent: 1, TotalAmount: 5500,
			AmountByMethod: map[string]float64{"Cash": 2000, "UPI": 3500},
			AmountByStatus: map[string]float64{"Paid": 5000, "Pending": 500},
		},
	}
}

func serve(repo Repository, backend BackendStatus, path string) *httptest.ResponseRecorder {
	e := echo.New()
	NewHandler(repo, backend).RegisterRoutes(e.Group("/api/v1"))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOverview(t *testing.T) {
	backend := staticBackend{st: llm.Status{Ready: true, QueueLength: 2}}
	rec := serve(newTestRepo(), backend, "/api/v1/analytics/overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Patients PatientStats `json:"patients"`
		AI       struct {
			TotalQueries int `json:"total_queries"`
			ModelStatus  struct {
				Ready       bool `json:"ready"`
				QueueLength int  `json:"queue_length"`
			} `json:"model_status"`
		} `json:"ai"`
		Payments PaymentStats `json:"payments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding overview: %v", err)
	}
	if out.Patients.Total != 7 || out.Patients.AverageAge != 44 {
		t.Errorf("patient stats: %+v", out.Patients)
	}
	if out.AI.TotalQueries != 20 || !out.AI.ModelStatus.Ready || out.AI.ModelStatus.QueueLength != 2 {
		t.Errorf("ai stats: %+v", out.AI)
	}
	if out.Payments.TotalAmount != 5500 || out.Payments.AmountByMethod["UPI"] != 3500 {
		t.Errorf("payment stats: %+v", out.Payments)
	}
}

func TestOverview_RepoFailure(t *testing.T) {
	repo := newTestRepo()
	repo.fail = true
	rec := serve(repo, staticBackend{}, "/api/v1/analytics/overview")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAIPerformance(t *testing.T) {
	rec := serve(newTestRepo(), staticBackend{}, "/api/v1/analytics/ai-performance")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out struct {
		TotalQueries  int            `json:"total_queries"`
		AvgConfidence float64        `json:"avg_confidence"`
		QueryTypes    map[string]int `json:"query_types"`
		TrendData     []DailyCount   `json:"trend_data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if out.TotalQueries != 20 || out.AvgConfidence != 0.72 {
		t.Errorf("query stats: %+v", out)
	}
	if out.QueryTypes["rag"] != 18 {
		t.Errorf("query types: %v", out.QueryTypes)
	}
	if len(out.TrendData) != 2 || out.TrendData[0].Date != "2026-08-30" {
		t.Errorf("trend data: %v", out.TrendData)
	}
}

func TestPatientOutcomes(t *testing.T) {
	rec := serve(newTestRepo(), staticBackend{}, "/api/v1/analytics/patient-outcomes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out struct {
		TotalPatients      int                `json:"total_patients"`
		AgeGroups          map[string]int     `json:"age_groups"`
		TopConditions      []NameCount        `json:"top_conditions"`
		TopMedications     []NameCount        `json:"top_medications"`
		GenderDistribution GenderDistribution `json:"gender_distribution"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if out.TotalPatients != 7 {
		t.Errorf("total patients = %d", out.TotalPatients)
	}
	if out.AgeGroups["51-65"] != 3 {
		t.Errorf("age groups: %v", out.AgeGroups)
	}
	if len(out.TopConditions) == 0 || out.TopConditions[0].Name != "hypertension" {
		t.Errorf("top conditions: %v", out.TopConditions)
	}
	if out.GenderDistribution.Other != 1 {
		t.Errorf("gender distribution: %+v", out.GenderDistribution)
	}
}
