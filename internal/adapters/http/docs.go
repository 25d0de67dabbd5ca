package http

import (
	"fmt"
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// OpenAPIPath is read relative to the working directory.
var OpenAPIPath = "api/openapi.yaml"

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Clinic Map API</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
<div id="docs"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#docs'});</script>
</body>
</html>`

// apiDocument is the OpenAPI file, loaded and validated on first use.
type apiDocument struct {
	once sync.Once
	raw  []byte
	json []byte
	err  error
}

func (d *apiDocument) load() error {
	d.once.Do(func() {
		d.raw, d.err = os.ReadFile(OpenAPIPath)
		if d.err != nil {
			return
		}
		doc, err := openapi3.NewLoader().LoadFromData(d.raw)
		if err != nil {
			d.err = fmt.Errorf("parse %s: %w", OpenAPIPath, err)
			return
		}
		d.json, d.err = doc.MarshalJSON()
	})
	return d.err
}

// SetupDocs serves a Swagger UI page at /docs and the API description as
// YAML and JSON.
func SetupDocs(app *fiber.App) {
	doc := &apiDocument{}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(docsPage)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if err := doc.load(); err != nil {
			LoggerFromCtx(c.UserContext()).Warn("api docs unavailable", "error", err)
			return errNotFound(c, "api description not available")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc.raw)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		if err := doc.load(); err != nil {
			LoggerFromCtx(c.UserContext()).Warn("api docs unavailable", "error", err)
			return errNotFound(c, "api description not available")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(doc.json)
	})
}
