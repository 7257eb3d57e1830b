package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestGenerateSpec_Structure(t *testing.T) {
	g := NewGenerator(Operations, "0.1.0", "http://localhost:8080")

	spec := g.GenerateSpec()

	if spec["openapi"] != "3.0.3" {
		t.Errorf("expected openapi '3.0.3', got %v", spec["openapi"])
	}
	info, ok := spec["info"].(map[string]interface{})
	if !ok {
		t.Fatal("expected info object")
	}
	if info["title"] != "MedHealth API" {
		t.Errorf("expected title 'MedHealth API', got %v", info["title"])
	}
	if info["version"] != "0.1.0" {
		t.Errorf("expected version '0.1.0', got %v", info["version"])
	}
	servers, ok := spec["servers"].([]map[string]string)
	if !ok || len(servers) != 1 || servers[0]["url"] != "http://localhost:8080" {
		t.Errorf("unexpected servers: %v", spec["servers"])
	}
}

func TestGenerateSpec_Paths(t *testing.T) {
	spec := NewGenerator(Operations, "0.1.0", "").GenerateSpec()
	paths := spec["paths"].(map[string]interface{})

	tests := []struct {
		path, method string
	}{
		{"/api/medications", "get"},
		{"/api/medications", "post"},
		{"/api/medications/{id}", "get"},
		{"/api/medications/{id}", "delete"},
		{"/api/medications/{id}/logs", "get"},
		{"/api/logs/medications", "post"},
		{"/api/logs/vitals", "get"},
		{"/api/vitals", "post"},
	}
	for _, tt := range tests {
		item, ok := paths[tt.path].(map[string]interface{})
		if !ok {
			t.Errorf("missing path %s", tt.path)
			continue
		}
		if _, ok := item[tt.method]; !ok {
			t.Errorf("missing %s %s", tt.method, tt.path)
		}
	}
	for p := range paths {
		if strings.Contains(p, ":") {
			t.Errorf("path %s still uses echo param syntax", p)
		}
	}
}

func TestGenerateSpec_OperationDetails(t *testing.T) {
	spec := NewGenerator(Operations, "0.1.0", "").GenerateSpec()
	paths := spec["paths"].(map[string]interface{})

	op := paths["/api/medications/{id}/logs"].(map[string]interface{})["get"].(map[string]interface{})
	if op["operationId"] != "getMedicationsByIdLogs" {
		t.Errorf("unexpected operationId %v", op["operationId"])
	}
	params := op["parameters"].([]map[string]interface{})
	var names []string
	for _, p := range params {
		names = append(names, p["name"].(string))
	}
	if strings.Join(names, ",") != "id,limit,offset" {
		t.Errorf("expected id,limit,offset params, got %v", names)
	}
	responses := op["responses"].(map[string]interface{})
	if _, ok := responses["200"]; !ok {
		t.Error("expected 200 response")
	}
	if _, ok := responses["default"]; !ok {
		t.Error("expected default OperationOutcome response")
	}

	post := paths["/api/logs/medications"].(map[string]interface{})["post"].(map[string]interface{})
	if _, ok := post["requestBody"]; !ok {
		t.Error("expected request body on record log")
	}
	if _, ok := post["responses"].(map[string]interface{})["201"]; !ok {
		t.Error("expected 201 response on record log")
	}
}

func TestGenerateSpec_SchemaRefsResolve(t *testing.T) {
	spec := NewGenerator(Operations, "0.1.0", "").GenerateSpec()
	raw, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	known := map[string]bool{}
	for _, name := range SchemaNames() {
		known[name] = true
	}

	const prefix = `"$ref":"#/components/schemas/`
	s := string(raw)
	for {
		i := strings.Index(s, prefix)
		if i < 0 {
			break
		}
		s = s[i+len(prefix):]
		name := s[:strings.Index(s, `"`)]
		if !known[name] {
			t.Errorf("dangling schema reference %q", name)
		}
	}
}

func TestSchemaNames_IncludesResources(t *testing.T) {
	names := strings.Join(SchemaNames(), ",")
	for _, want := range []string{"MedicationStatement", "Observation", "OperationOutcome", "RecordLogRequest"} {
		if !strings.Contains(names, want) {
			t.Errorf("expected schema %s in %s", want, names)
		}
	}
}

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	NewGenerator(Operations, "0.1.0", "").RegisterRoutes(e.Group("/api"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("expected JSON document: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("unexpected document: %v", doc["openapi"])
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Errorf("expected Swagger UI page, got %d", rec.Code)
	}
}
