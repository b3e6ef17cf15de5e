// Package http implements the HTTP handlers of the pricepulse API. Handlers
// are thin: they decode and validate the request, call a service and render
// either the response DTO or an RFC 7807 problem document.
//
// # Endpoints
//
//	POST /api/analyze            analyze a price history sent in the body
//	POST /api/listings/analyze   fetch a market listing and analyze it
//	GET  /api/analysis/latest    the last successful result (include_series=false drops the points)
//	GET  /api/version            build and version information
//	GET  /health, /health/ready, /health/live
//
// Errors go through errors.ErrorHandler so an insufficient series becomes a
// 422, a failed fetch a 502 and a failed export a 500.
package http
