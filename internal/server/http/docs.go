package http

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/observability"
)

const (
	// DocsPath serves the interactive API browser.
	DocsPath = "/"
	// OpenAPIPath serves the OpenAPI 3 document.
	OpenAPIPath = "/openapi.json"
)

//go:embed openapi.json
var openAPISource []byte

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sales Order API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.onload = function () {
  SwaggerUIBundle({ url: "` + OpenAPIPath + `", dom_id: "#swagger-ui" });
};
</script>
</body>
</html>
`

// OpenAPIDocument renders the API description with the security scheme bound
// to the configured key header.
func OpenAPIDocument(cfg config.Config) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(openAPISource, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if cfg.Auth.Header != "" {
		if err := setField(doc, cfg.Auth.Header, "components", "securitySchemes", "ApiKey", "name"); err != nil {
			return nil, err
		}
	}
	if err := setField(doc, observability.ServiceVersion, "info", "x-build"); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func setField(doc map[string]any, value any, path ...string) error {
	node := doc
	for _, key := range path[:len(path)-1] {
		next, ok := node[key].(map[string]any)
		if !ok {
			return fmt.Errorf("openapi document has no object at %q", key)
		}
		node = next
	}
	node[path[len(path)-1]] = value
	return nil
}

// RegisterDocs mounts the OpenAPI document and its browser. Both are public.
func RegisterDocs(e *echo.Echo, cfg config.Config) error {
	doc, err := OpenAPIDocument(cfg)
	if err != nil {
		return err
	}
	e.GET(OpenAPIPath, func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, doc)
	})
	e.GET(DocsPath, func(c echo.Context) error {
		return c.HTML(http.StatusOK, docsPage)
	})
	return nil
}
