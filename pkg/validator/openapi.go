// Package validator checks incoming requests against the OpenAPI document in api/openapi.yaml.
package validator

import (
	"context"
	"fmt"
	"sync"

	"ai-board-of-directors/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests against an OpenAPI document
type OpenAPIValidator struct {
	doc        *openapi3.T
	router     routers.Router
	schemaPath string
	mutex      sync.RWMutex
}

// NewOpenAPIValidator loads and validates the document at schemaPath
func NewOpenAPIValidator(schemaPath string) (*OpenAPIValidator, error) {
	v := &OpenAPIValidator{schemaPath: schemaPath}
	if err := v.Reload(); err != nil {
		return nil, err
	}
	return v, nil
}

func loadOpenAPISchema(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI schema from %s: %w", path, err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}
	return doc, nil
}

// Reload re-reads the document from disk
func (v *OpenAPIValidator) Reload() error {
	doc, err := loadOpenAPISchema(v.schemaPath)
	if err != nil {
		return err
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.doc = doc
	v.router = router
	return nil
}

// Operations returns the number of documented operations
func (v *OpenAPIValidator) Operations() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	n := 0
	for _, item := range v.doc.Paths.Map() {
		n += len(item.Operations())
	}
	return n
}

// Middleware rejects requests that do not match their documented operation.
// Routes missing from the document pass through untouched. Authentication is left to the JWT middleware.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v.mutex.RLock()
		router := v.router
		v.mutex.RUnlock()

		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error { return nil },
				MultiError:         false,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			_ = c.Error(errors.BadRequestWithDetails("SCHEMA_VALIDATION_FAILED", "Request does not match the API schema", gin.H{
				"reason": err.Error(),
			}))
			c.Abort()
			return
		}

		c.Next()
	}
}
