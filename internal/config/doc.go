// Package config provides configuration management for stubrunner.
//
// Configuration is read from a single YAML file (config.yaml). When a
// directory is given the loader looks for config.yaml inside it; when the
// file does not exist the defaults are used. Values from the file are decoded
// on top of the defaults, so a file only needs to mention what it changes.
//
// # Configuration file
//
//	portRange:
//	  min: 20000
//	  max: 20010
//	repository:
//	  root: https://repo.example.org/maven2
//	  group: com.example
//	  module: payments-stubs
//	  useLocal: false
//	registry:
//	  port: 2181
//	basePath: com/example/payments
//	dependencies:
//	  billing:
//	    path: billing-stubs
//	  ledger:
//	    path: ledger-stubs
//
// # Microservice descriptor
//
// The dependency map can also come from a microservice descriptor (JSON or
// YAML) referenced through the descriptor key. The descriptor carries the base
// path and the dependencies of the service under test; entries from the
// descriptor are merged into the ones declared in config.yaml.
//
// # Validation
//
// Validate checks the whole configuration at load time and returns every
// problem at once as ValidationErrors. Dependencies are turned into typed
// api.Dependency values there, so a missing alias or mapping path fails fast
// instead of surfacing on first use.
package config
