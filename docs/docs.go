// Package docs holds the generated swagger spec for the GeoGuard API.
package docs

import (
	"github.com/swaggo/swag"
)

var doc = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/location/update": {
            "post": {
                "description": "Ingests one GPS ping and applies it synchronously, returning the resulting trip state.",
                "tags": ["ingestion"],
                "summary": "Process a GPS ping synchronously",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/audit/trip/{id}": {
            "get": {
                "description": "Returns every immutable event recorded for a trip, oldest first.",
                "tags": ["audit"],
                "summary": "List a trip's events",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        }
    },
    "definitions": {}
}`

// SwaggerInfo holds exported swagger metadata, populated by swag init and
// consumed by swaggo/gin-swagger's WrapHandler.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GeoGuard Fleet Geofence API",
	Description:      "Geofence arrival/departure detection and trip lifecycle engine for a GPS-tracked vehicle fleet.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  doc,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
