// Package config defines configuration structures for the wayfetch CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (WAYFETCH_ prefix)
//   - YAML configuration file
//
// # Structure
//
//	type Config struct {
//	    Domain      string
//	    Limit       int
//	    OutputDir   string
//	    Format      string
//	    Extensions  []string
//	    Mimetypes   []string
//	    Regex       string
//	    StatusCodes []int
//	    Workers     int
//	    Retries     int
//	    ...
//	}
package config
