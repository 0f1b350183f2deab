// Package config provides the platform configuration for stagehand.
//
// # Configuration File
//
// The optional configuration file is JSON and follows a naming convention:
// integration-tests.json or <prefix>.integration-tests.json. FindConfigFile
// searches the working directory and up to three directory levels below it,
// skipping node_modules, .git, dist, build, vendor, coverage, .angular and
// tmp.
//
// The file holds one interpreted object, platformConfig. Every other
// top-level key is metadata and ignored:
//
//	{
//	  "name": "workspace ui tests",
//	  "platformConfig": {
//	    "enableLogging": ["shell-bff", "!postgres"],
//	    "importData": true,
//	    "heartbeat": { "enabled": true, "interval": 10000, "failureThreshold": 3 },
//	    "platformOverrides": {
//	      "services": { "tenant-svc": { "image": "ghcr.io/onecx/onecx-tenant-svc:pr-12" } }
//	    },
//	    "components": { "services": ["tenant-svc", "permission-svc"] },
//	    "container": {
//	      "service": {
//	        "networkAlias": "custom-svc",
//	        "image": "ghcr.io/acme/custom-svc:latest",
//	        "database": { "name": "custom", "username": "custom", "password": "custom" }
//	      }
//	    }
//	  }
//	}
//
// Durations (heartbeat.interval, importer.timeout, importer.pollInterval)
// are whole milliseconds. container.service, container.bff and container.ui
// accept a single definition or an array.
//
// # Validation
//
// Validator checks the file against an embedded JSON schema
// (gojsonschema), then runs Validate for the rules a schema cannot express:
// unique networkAlias values, no collision with a built-in container key and
// known service names. Every failure is returned as a ValidationResult with
// human-readable messages. A broken file never aborts startup: Resolve logs
// a warning and falls back to Default().
//
// Precedence of the effective configuration:
//
//  1. an explicit *PlatformConfig passed by the caller
//  2. a valid configuration file
//  3. Default()
//
// # Errors
//
// ConfigurationError is the fatal error raised while starting containers:
// a service whose dependency is not enabled, or a definition without
// required database credentials.
package config
