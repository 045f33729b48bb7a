// Package framework contains the low-level implementation of the TAP test harness. The base
// package contains shared types such as Logger; other components are in the subpackages.
//
// The general model is:
//
// 1. Test cases are registered on a runner (package tapzero) during a registration phase.
// When the registration phase ends, the runner executes every test in order, one at a
// time, and reports each assertion as a line of TAP version 13 output.
//
// 2. Test bodies that need an external resource (an HTTP server, a Redis or Consul
// instance, a DynamoDB table) use the adapter in package harness, which bootstraps the
// resource before the body runs and always closes it afterward. The resources themselves
// are in package resources.
//
// 3. Report lines go to a Sink. Besides the console, lines can be streamed to remote
// viewers (package tapstream) and assertion outcomes can be exported as metrics (package
// tapmetrics).
package framework
