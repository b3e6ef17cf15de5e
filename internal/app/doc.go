// Package app wires the pricepulse web service: configuration, logging,
// OpenTelemetry, the analysis and health services, the optional scheduler
// and the chi router.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, environment)
//	2. Resolve paths next to the executable and create them
//	3. Initialize the logger and OpenTelemetry providers
//	4. Build the analyzer, exporter and browser source factory
//	5. Register the listing job when scheduling is enabled
//	6. Set up middleware and routes
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns after SIGINT, SIGTERM or cancellation of ctx once the server,
// the scheduler and the telemetry providers have shut down. The package never
// calls os.Exit.
//
// NewAnalyzer, NewSourceFactory and NewAnalysisService are shared with the
// command-line tool so both entry points build the pipeline the same way.
package app
