// Package controller contains the HTTP middleware and helper handlers of the
// metrics endpoint.
//
//   - WithLogger attaches a request-scoped logger and request ID to the context and logs access info.
//   - PprofMux returns a ServeMux exposing net/http/pprof handlers under /debug/pprof/.
package controller
