// Package tastypie provides types, interfaces, and helpers for reading a
// Tastypie-style hyperlinked REST API as a lazy object graph.
//
// # Overview
//
// Resources reference each other by URL. The client decodes every such URL
// into a ResourceProxy and every list field into a ListProxy; nothing is
// fetched until a field of the referenced resource is read. A concrete client
// is provided by the tpclient package:
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
//	  "github.com/fivetwenty-io/tastypie-client/pkg/tpclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := tpclient.New(ctx, &tastypie.Config{ServiceURL: "http://localhost:8000/api/v1/"})
//	  if err != nil { log.Fatal(err) }
//
//	  entry, err := cli.Get(ctx, "entry", 42)
//	  if err != nil { log.Fatal(err) }
//
//	  user, _ := entry.Get("user")
//	  name, err := user.(*tastypie.ResourceProxy).Get(ctx, "name") // one request to user/<id>/
//	  _ = name
//	}
//
// # Searches
//
// Find returns a SearchResponse whose total is fixed by the first request.
// Index and Slice fetch only what is not cached yet, one request at most per
// call:
//
//	res, err := cli.Find(ctx, "entry", tastypie.NewFilters().With("user__username", "bob"))
//	first, err := res.Index(ctx, 0)
//	page, err := res.Slice(ctx, 10, 20)
//	names, err := res.ValuesList(ctx, true, "title")
//
// # Batching
//
// Slicing a ListProxy issues one set/ request per distinct resource type
// among the unresolved elements, whatever their number. Client.Many exposes
// the same batch request directly; ids reported in not_found map to nil.
//
// # Errors
//
// Any non-200 answer is a *BadHTTPStatusError carrying the URL and status.
// Contract violations are reported with the sentinel errors in errors.go and
// can be matched with errors.Is.
//
// # Interceptors
//
// Config.RequestInterceptors and Config.ResponseInterceptors run around
// every round trip; the package ships logging, header, API key, request id
// and metrics interceptors.
package tastypie
