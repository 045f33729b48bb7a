// Package resourcetest contains in-memory stand-ins for the services used by package
// resources. They implement just enough of each HTTP API for the resources' own calls.
package resourcetest
