// Package main provides the entry point for CounterSuite, a multi-tenant
// business management service. It runs a Fiber web server whose every request
// is bound to exactly one tenant: tenant resolution, session identity,
// permission checks and audit logging all happen in middleware before any
// handler executes. Data is persisted with gorm.
package main
