// Package harness runs tapzero tests against an external resource that has to be set up
// before each test and torn down after it, such as a server or a database table.
//
// A Suite creates a fresh resource for every test through its factory, calls Bootstrap,
// runs the test body, and then calls Close exactly once no matter how the body ended.
package harness
