// Package tpclient provides the primary entry point for constructing a
// Tastypie API client that implements the tastypie.Client interface.
//
// It layers configuration, transport selection and endpoint discovery on top
// of the lazy resource types defined in the tastypie package. Most
// applications import tpclient to build a client, then use the returned
// tastypie.Client for everything else.
//
// Quick start
//
//	import (
//	  "context"
//	  "fmt"
//	  "log"
//
//	  "github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
//	  "github.com/fivetwenty-io/tastypie-client/pkg/tpclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: just the entry endpoint.
//	  cli, err := tpclient.NewWithURL(ctx, "http://localhost:8000/api/v1/")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  // Or with ApiKey authentication:
//	  cli, err = tpclient.NewWithAPIKey(ctx, "http://localhost:8000/api/v1/", "bob", "204db7bcfafb2deb7506b89eb3b9b715b09905c8")
//
//	  // Or through a NATS bridge started with `tastypie bridge`:
//	  cli, err = tpclient.NewWithNATS(ctx, "http://localhost:8000/api/v1/", "nats://127.0.0.1:4222", "")
//
//	  fmt.Println(cli.Endpoints())
//	}
//
// Configuration
//
// tastypie.Config carries the service URL, the serializer, retry and timeout
// settings, the logger and any request or response interceptors. Retries are
// disabled unless RetryMax is set, so each operation maps to exactly one
// request on the wire.
//
// Errors
//
// A nil config yields tastypie.ErrConfigRequired and an empty service URL
// tastypie.ErrServiceURLRequired. Failures while discovering the endpoints
// are wrapped and can be matched with errors.Is or errors.As.
package tpclient
