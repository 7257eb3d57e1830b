// Package openapi describes the REST surface as an OpenAPI 3.0 document and
// serves it together with a Swagger UI page.
package openapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Operation is one documented route.
type Operation struct {
	Method      string
	Path        string // echo form, e.g. /api/medications/:id
	Summary     string
	Tag         string
	RequestBody string // component schema name, empty when there is no body
	Status      int
	Response    string // component schema name
	Array       bool   // response is an array of Response
	Paginated   bool
}

// Operations lists every documented REST route.
var Operations = []Operation{
	{Method: http.MethodGet, Path: "/api/health", Summary: "Service liveness", Tag: "Health", Status: http.StatusOK, Response: "Health"},
	{Method: http.MethodGet, Path: "/api/medications", Summary: "List active medications", Tag: "Medication", Status: http.StatusOK, Response: "Medication", Array: true},
	{Method: http.MethodPost, Path: "/api/medications", Summary: "Create a medication", Tag: "Medication", RequestBody: "CreateMedicationRequest", Status: http.StatusCreated, Response: "Created"},
	{Method: http.MethodGet, Path: "/api/medications/:id", Summary: "Read a medication", Tag: "Medication", Status: http.StatusOK, Response: "Medication"},
	{Method: http.MethodDelete, Path: "/api/medications/:id", Summary: "Deactivate a medication", Tag: "Medication", Status: http.StatusOK, Response: "Deleted"},
	{Method: http.MethodGet, Path: "/api/medications/:id/logs", Summary: "Adherence history of one medication", Tag: "MedicationStatement", Status: http.StatusOK, Response: "MedicationStatement", Array: true, Paginated: true},
	{Method: http.MethodGet, Path: "/api/logs/medications", Summary: "Adherence history", Tag: "MedicationStatement", Status: http.StatusOK, Response: "MedicationStatement", Array: true, Paginated: true},
	{Method: http.MethodPost, Path: "/api/logs/medications", Summary: "Record a taken or missed dose", Tag: "MedicationStatement", RequestBody: "RecordLogRequest", Status: http.StatusCreated, Response: "MedicationStatement"},
	{Method: http.MethodGet, Path: "/api/vitals", Summary: "Vital-sign observations", Tag: "Observation", Status: http.StatusOK, Response: "Observation", Array: true, Paginated: true},
	{Method: http.MethodPost, Path: "/api/vitals", Summary: "Record a vitals reading", Tag: "Observation", RequestBody: "CreateVitalsRequest", Status: http.StatusCreated, Response: "Created"},
	{Method: http.MethodGet, Path: "/api/logs/vitals", Summary: "Vital-sign observations", Tag: "Observation", Status: http.StatusOK, Response: "Observation", Array: true, Paginated: true},
}

// Generator builds the document from a list of operations.
type Generator struct {
	ops     []Operation
	version string
	baseURL string
}

func NewGenerator(ops []Operation, version, baseURL string) *Generator {
	return &Generator{ops: ops, version: version, baseURL: baseURL}
}

// GenerateSpec produces the OpenAPI 3.0 document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]interface{})
	for _, op := range g.ops {
		p := openAPIPath(op.Path)
		item, ok := paths[p].(map[string]interface{})
		if !ok {
			item = make(map[string]interface{})
			paths[p] = item
		}
		item[strings.ToLower(op.Method)] = g.buildOperation(op)
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "MedHealth API",
			"version":     g.version,
			"description": "Medication adherence and vital signs as FHIR R4 resources",
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"security": []map[string][]string{
			{"bearerAuth": {}},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": buildComponentSchemas(),
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]interface{}{
					"type":        "http",
					"scheme":      "bearer",
					"description": "API key or HS256 JWT",
				},
			},
		},
	}
}

// openAPIPath rewrites echo path params (:id) to OpenAPI form ({id}).
func openAPIPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + p[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

func pathParams(path string) []string {
	var names []string
	for _, p := range strings.Split(path, "/") {
		if strings.HasPrefix(p, ":") {
			names = append(names, p[1:])
		}
	}
	return names
}

func (g *Generator) buildOperation(op Operation) map[string]interface{} {
	params := []map[string]interface{}{}
	for _, name := range pathParams(op.Path) {
		params = append(params, map[string]interface{}{
			"name": name, "in": "path", "required": true,
			"schema": map[string]string{"type": "integer"},
		})
	}
	if op.Paginated {
		params = append(params,
			map[string]interface{}{"name": "limit", "in": "query", "schema": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100}},
			map[string]interface{}{"name": "offset", "in": "query", "schema": map[string]interface{}{"type": "integer", "minimum": 0}},
		)
	}

	out := map[string]interface{}{
		"summary":     op.Summary,
		"operationId": operationID(op),
		"tags":        []string{op.Tag},
		"parameters":  params,
		"responses": map[string]interface{}{
			strconv.Itoa(op.Status): g.buildResponse(op),
			"default":       g.buildResponseWithSchema("Error", "#/components/schemas/OperationOutcome"),
		},
	}
	if op.RequestBody != "" {
		out["requestBody"] = g.buildRequestBody(op.RequestBody)
	}
	return out
}

func operationID(op Operation) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(op.Method))
	for _, p := range strings.Split(op.Path, "/") {
		if p == "" || p == "api" {
			continue
		}
		if strings.HasPrefix(p, ":") {
			p = "by-" + p[1:]
		}
		for _, w := range strings.Split(p, "-") {
			if w != "" {
				b.WriteString(strings.ToUpper(w[:1]) + w[1:])
			}
		}
	}
	return b.String()
}

func (g *Generator) buildRequestBody(schema string) map[string]interface{} {
	return map[string]interface{}{
		"required": true,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{"$ref": "#/components/schemas/" + schema},
			},
		},
	}
}

func (g *Generator) buildResponse(op Operation) map[string]interface{} {
	schema := map[string]interface{}{"$ref": "#/components/schemas/" + op.Response}
	if op.Array {
		schema = map[string]interface{}{"type": "array", "items": schema}
	}
	return map[string]interface{}{
		"description": http.StatusText(op.Status),
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func (g *Generator) buildResponseWithSchema(description, schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/fhir+json": map[string]interface{}{
				"schema": map[string]interface{}{"$ref": schemaRef},
			},
		},
	}
}

// SchemaNames returns the component schema names in sorted order.
func SchemaNames() []string {
	schemas := buildComponentSchemas()
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildComponentSchemas() map[string]interface{} {
	return map[string]interface{}{
		"Meta":            buildMetaSchema(),
		"Coding":          buildCodingSchema(),
		"CodeableConcept": buildCodeableConceptSchema(),
		"Reference":       buildReferenceSchema(),
		"Quantity":        buildQuantitySchema(),

		"MedicationStatement": buildMedicationStatementSchema(),
		"Observation":         buildObservationSchema(),
		"OperationOutcome":    buildOperationOutcomeSchema(),

		"Medication":              buildMedicationSchema(),
		"CreateMedicationRequest": buildCreateMedicationSchema(),
		"RecordLogRequest":        buildRecordLogSchema(),
		"CreateVitalsRequest":     buildCreateVitalsSchema(),
		"Health":                  buildHealthSchema(),
		"Created":                 statusSchema("created"),
		"Deleted":                 statusSchema("deleted"),
	}
}

// ── FHIR data types ─────────────────────────────────────────────────────

func str() map[string]interface{} { return map[string]interface{}{"type": "string"} }

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	out := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func buildMetaSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"version_id":   str(),
		"last_updated": map[string]interface{}{"type": "string", "format": "date-time"},
	})
}

func buildCodingSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"system":  map[string]interface{}{"type": "string", "format": "uri"},
		"code":    str(),
		"display": str(),
	})
}

func buildCodeableConceptSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"coding": map[string]interface{}{"type": "array", "items": ref("Coding")},
		"text":   str(),
	})
}

func buildReferenceSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"reference": str(),
		"display":   str(),
	})
}

func buildQuantitySchema() map[string]interface{} {
	return object(map[string]interface{}{
		"value":  map[string]interface{}{"type": "number"},
		"unit":   str(),
		"system": map[string]interface{}{"type": "string", "format": "uri"},
		"code":   str(),
	})
}

// ── FHIR resources ──────────────────────────────────────────────────────

func baseResourceProperties(resourceType string) map[string]interface{} {
	return map[string]interface{}{
		"resourceType":      map[string]interface{}{"type": "string", "enum": []string{resourceType}},
		"id":                map[string]interface{}{"type": "string", "format": "uuid"},
		"meta":              ref("Meta"),
		"subject":           ref("Reference"),
		"effectiveDateTime": map[string]interface{}{"type": "string", "format": "date-time"},
	}
}

func buildMedicationStatementSchema() map[string]interface{} {
	props := baseResourceProperties("MedicationStatement")
	props["status"] = map[string]interface{}{"type": "string", "enum": []string{"completed", "not-taken"}}
	props["medication"] = ref("Reference")
	props["dosage"] = object(map[string]interface{}{
		"text": str(),
		"timing": object(map[string]interface{}{
			"repeat": object(map[string]interface{}{
				"frequency":   map[string]interface{}{"type": "integer"},
				"period":      map[string]interface{}{"type": "number"},
				"period_unit": str(),
			}),
		}),
	})
	return object(props, "resourceType", "id", "status", "medication", "subject", "effectiveDateTime")
}

func buildObservationSchema() map[string]interface{} {
	props := baseResourceProperties("Observation")
	props["status"] = map[string]interface{}{"type": "string", "enum": []string{"final"}}
	props["category"] = map[string]interface{}{"type": "array", "items": ref("CodeableConcept")}
	props["code"] = ref("CodeableConcept")
	props["valueQuantity"] = ref("Quantity")
	return object(props, "resourceType", "id", "status", "code", "subject", "effectiveDateTime", "valueQuantity")
}

func buildOperationOutcomeSchema() map[string]interface{} {
	issue := object(map[string]interface{}{
		"severity":    map[string]interface{}{"type": "string", "enum": []string{"fatal", "error", "warning", "information"}},
		"code":        str(),
		"diagnostics": str(),
		"expression":  map[string]interface{}{"type": "array", "items": str()},
	}, "severity", "code")
	return object(map[string]interface{}{
		"resourceType": map[string]interface{}{"type": "string", "enum": []string{"OperationOutcome"}},
		"issue":        map[string]interface{}{"type": "array", "items": issue},
	}, "resourceType", "issue")
}

// ── Request and plain bodies ────────────────────────────────────────────

var clockTime = map[string]interface{}{"type": "string", "pattern": `^\d{1,2}:\d{2}$`, "example": "08:00"}

func buildMedicationSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"id":            map[string]interface{}{"type": "integer"},
		"name":          str(),
		"schedule_time": clockTime,
		"active":        map[string]interface{}{"type": "boolean"},
		"created_at":    map[string]interface{}{"type": "string", "format": "date-time"},
	})
}

func buildCreateMedicationSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"name":          map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 100},
		"schedule_time": clockTime,
	}, "name", "schedule_time")
}

func readings() map[string]interface{} {
	return map[string]interface{}{
		"temperature": map[string]interface{}{"type": "number", "minimum": 20, "maximum": 45},
		"heart_rate":  map[string]interface{}{"type": "integer", "minimum": 30, "maximum": 250},
	}
}

func buildRecordLogSchema() map[string]interface{} {
	props := readings()
	props["medication_id"] = map[string]interface{}{"type": "integer"}
	props["status"] = map[string]interface{}{"type": "string", "enum": []string{"taken", "missed"}}
	props["scheduled_time"] = clockTime
	props["actual_time"] = clockTime
	return object(props, "medication_id", "status")
}

func buildCreateVitalsSchema() map[string]interface{} {
	props := readings()
	props["status"] = map[string]interface{}{"type": "string", "enum": []string{"normal", "abnormal", "warning"}}
	return object(props)
}

func buildHealthSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"status":  str(),
		"service": str(),
		"version": str(),
	})
}

func statusSchema(value string) map[string]interface{} {
	return object(map[string]interface{}{
		"status": map[string]interface{}{"type": "string", "enum": []string{value}},
	})
}

// ── Swagger UI ──────────────────────────────────────────────────────────

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>MedHealth API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/api/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [
        SwaggerUIBundle.presets.apis,
        SwaggerUIBundle.SwaggerUIStandalonePreset
      ],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

// RegisterRoutes registers the OpenAPI endpoints.
func (g *Generator) RegisterRoutes(apiGroup *echo.Group) {
	apiGroup.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	apiGroup.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
