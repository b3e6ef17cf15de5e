// Package services implements the business logic layer of pricepulse. It
// sits between the HTTP handlers, the CLI and the scheduler on one side and
// the acquisition, analysis and export packages on the other.
//
// # Available Services
//
//	- AnalysisService: acquire a listing (or take caller-supplied points),
//	  run the pricehistory pipeline, build the chart dataset and export.
//	- HealthService: liveness, readiness and version information.
//
// Every run gets a UUID run id carried in the context, so all log lines of
// one run share trace_id and run_id attributes.
package services
