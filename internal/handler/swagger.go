package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dafibh/ledger/ledger-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

const (
	swaggerRefPrefix  = "#/definitions/"
	openAPIRefPrefix  = "#/components/schemas/"
	jsonContentType   = "application/json"
	openAPI3Version   = "3.0.3"
	apiBasePath       = "/api/v1"
	localDevServerURL = "http://localhost:8080" + apiBasePath
)

// OpenAPI3Spec is the document served at /openapi.json
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// NewOpenAPI3Handler serves the generated swagger 2.0 docs as OpenAPI 3.0. publicURL, when set,
// is listed ahead of the local server.
func NewOpenAPI3Handler(publicURL string) echo.HandlerFunc {
	servers := []Server{{URL: localDevServerURL, Description: "Local Development"}}
	if publicURL != "" {
		servers = append([]Server{{
			URL:         strings.TrimSuffix(publicURL, "/") + apiBasePath,
			Description: "Deployed",
		}}, servers...)
	}

	return func(c echo.Context) error {
		spec, err := buildOpenAPI3Spec(servers)
		if err != nil {
			return NewInternalError(c, "Failed to read API documentation")
		}
		return c.JSON(http.StatusOK, spec)
	}
}

func buildOpenAPI3Spec(servers []Server) (*OpenAPI3Spec, error) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return nil, err
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]interface{})

	paths := make(map[string]interface{})
	if swaggerPaths, ok := swagger2["paths"].(map[string]interface{}); ok {
		for path, item := range swaggerPaths {
			operations, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			converted := make(map[string]interface{}, len(operations))
			for method, op := range operations {
				if operation, ok := op.(map[string]interface{}); ok {
					converted[method] = convertOperation(operation)
				}
			}
			paths[path] = converted
		}
	}

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    openAPI3Version,
		Info:       info,
		Servers:    servers,
		Paths:      paths,
		Components: components,
	}, nil
}

// convertOperation moves the body parameter into requestBody and response schemas under
// application/json content. consumes and produces have no OpenAPI 3 counterpart.
func convertOperation(op map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(op))
	for key, value := range op {
		switch key {
		case "consumes", "produces":
		case "parameters":
			params, _ := value.([]interface{})
			var converted []interface{}
			for _, p := range params {
				param, ok := p.(map[string]interface{})
				if !ok {
					continue
				}
				if param["in"] == "body" {
					result["requestBody"] = convertBodyParameter(param)
					continue
				}
				converted = append(converted, convertParameter(param))
			}
			if len(converted) > 0 {
				result["parameters"] = converted
			}
		case "responses":
			result["responses"] = convertResponses(value)
		default:
			result[key] = value
		}
	}
	return result
}

// convertParameter wraps the inline type fields of a query or path parameter in a schema
func convertParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	schema := make(map[string]interface{})
	for key, value := range param {
		switch key {
		case "type", "format", "enum", "default", "minimum", "maximum":
			schema[key] = value
		case "items":
			schema[key] = rewriteRefs(value)
		default:
			result[key] = value
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

func convertBodyParameter(param map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"content": map[string]interface{}{
			jsonContentType: map[string]interface{}{"schema": rewriteRefs(param["schema"])},
		},
	}
	if desc, ok := param["description"]; ok {
		body["description"] = desc
	}
	if required, ok := param["required"]; ok {
		body["required"] = required
	}
	return body
}

func convertResponses(value interface{}) interface{} {
	responses, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	result := make(map[string]interface{}, len(responses))
	for status, r := range responses {
		response, ok := r.(map[string]interface{})
		if !ok {
			result[status] = r
			continue
		}
		converted := map[string]interface{}{"description": response["description"]}
		if schema, ok := response["schema"]; ok {
			converted["content"] = map[string]interface{}{
				jsonContentType: map[string]interface{}{"schema": rewriteRefs(schema)},
			}
		}
		result[status] = converted
	}
	return result
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = openAPIRefPrefix + strings.TrimPrefix(ref, swaggerRefPrefix)
				continue
			}
			result[key] = rewriteRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = rewriteRefs(item)
		}
		return result
	default:
		return data
	}
}
