package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "qexpand/internal/httpapi/docs"
)

// swaggerEnabled gates the /swagger/* UI.
var swaggerEnabled = true

// SetSwaggerEnabled turns the /swagger/* UI on or off for muxes built afterwards.
func SetSwaggerEnabled(on bool) { swaggerEnabled = on }

// MountSwagger serves the OpenAPI document and UI under /swagger.
func MountSwagger(r chi.Router) {
	if !swaggerEnabled {
		return
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
