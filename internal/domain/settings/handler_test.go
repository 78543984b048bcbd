package settings

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	NewHandler(NewService(newMockRepo()), nil).RegisterRoutes(e.Group("/api/v1"))

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerGetAll_IncludesEveryCategory(t *testing.T) {
	rec := serve(t, http.MethodGet, "/api/v1/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var all map[string]map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	for category := range Defaults {
		if _, ok := all[category]; !ok {
			t.Errorf("missing category %q in response", category)
		}
	}
}

func TestHandlerGet_UnknownCategory(t *testing.T) {
	rec := serve(t, http.MethodGet, "/api/v1/settings/bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerUpdate_MergesBody(t *testing.T) {
	rec := serve(t, http.MethodPut, "/api/v1/settings/appearance", `{"theme":"light"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var setting Setting
	if err := json.Unmarshal(rec.Body.Bytes(), &setting); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if setting.Value["theme"] != "light" {
		t.Errorf("expected merged theme light, got %v", setting.Value["theme"])
	}
	if setting.Value["language"] != "en" {
		t.Errorf("expected default language preserved, got %v", setting.Value["language"])
	}
}

func TestHandlerUpdate_InvalidCategory(t *testing.T) {
	rec := serve(t, http.MethodPut, "/api/v1/settings/bogus", `{"x":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
