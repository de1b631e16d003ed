package router

import (
	"os"
	"path/filepath"

	"ai-board-of-directors/backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// openAPIValidation returns request validation middleware for schemaPath and serves the document
// under /api/docs. It returns nil when the schema is missing or invalid.
func (r *Router) openAPIValidation(schemaPath string) gin.HandlerFunc {
	if schemaPath == "" || !fileExists(schemaPath) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return nil
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.LogError(err, "Failed to initialize OpenAPI validator")
		return nil
	}
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath, "operations", v.Operations())

	r.Engine.StaticFile("/api/docs/"+filepath.Base(schemaPath), schemaPath)
	return v.Middleware()
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
