// Package resources contains harness.Resource implementations for the external services
// that tests commonly need. Each resource type has an options struct, which is also what
// gets read from the YAML configuration file, and a constructor with the signature of a
// harness.Factory.
package resources
