package main

// General API documentation for swaggo. Regenerate with
// `swag init -g cmd/qexpand/docs.go -o internal/httpapi/docs`.
//
// @title           qexpand API
// @version         1.0
// @description     HTTP API for LLM-backed search query expansion.
//
// @contact.name   qexpand maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
//
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
