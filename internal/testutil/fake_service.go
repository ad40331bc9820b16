// Package testutil provides an in-process Tastypie-style service for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
)

// DefaultBasePath is where the fake service mounts its API.
const DefaultBasePath = "/api/1"

// FakeService serves resources from memory using the list, detail, set and
// schema conventions, and records every request it receives.
type FakeService struct {
	Server *httptest.Server

	mu        sync.Mutex
	basePath  string
	resources map[string]map[int]map[string]any
	requests  []string
	failures  map[string]int
	// omitted ids appear in neither objects nor not_found of a set response.
	omitted map[int]bool
	// pageSize is the number of objects a list returns when no limit is given.
	pageSize int
}

// NewFakeService starts a fake service. It is closed when the test ends.
func NewFakeService(t testing.TB) *FakeService {
	t.Helper()

	fake := &FakeService{
		basePath:  DefaultBasePath,
		resources: make(map[string]map[int]map[string]any),
		failures:  make(map[string]int),
		omitted:   make(map[int]bool),
		pageSize:  20,
	}

	fake.Server = httptest.NewServer(fake.routes())
	t.Cleanup(fake.Server.Close)

	return fake
}

func (f *FakeService) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(f.record)

	router.Route(f.basePath, func(r chi.Router) {
		r.Get("/", f.handleEntry)
		r.Get("/{type}/", f.handleList)
		r.Get("/{type}/schema/", f.handleSchema)
		r.Get("/{type}/set/{ids}/", f.handleSet)
		r.Get("/{type}/{id}/", f.handleDetail)
	})

	return router
}

// URL returns the service URL, e.g. "http://127.0.0.1:1234/api/1/".
func (f *FakeService) URL() string {
	return f.Server.URL + f.basePath + "/"
}

// ResourceURI returns the path the service uses to identify a resource.
func (f *FakeService) ResourceURI(resourceType string, id int) string {
	return fmt.Sprintf("%s/%s/%d/", f.basePath, resourceType, id)
}

// Add stores a resource. Related resources are referenced by ResourceURI.
func (f *FakeService) Add(resourceType string, id int, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resources[resourceType] == nil {
		f.resources[resourceType] = make(map[int]map[string]any)
	}

	stored := make(map[string]any, len(fields)+2)
	for name, value := range fields {
		stored[name] = value
	}

	stored["id"] = id
	stored[constants.FieldResourceURI] = f.ResourceURI(resourceType, id)

	f.resources[resourceType][id] = stored
}

// AddType announces a resource type even when it holds no resources.
func (f *FakeService) AddType(resourceType string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resources[resourceType] == nil {
		f.resources[resourceType] = make(map[int]map[string]any)
	}
}

// SetPageSize sets how many objects a list returns without an explicit limit.
// Zero makes the first page carry only the metadata.
func (f *FakeService) SetPageSize(size int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageSize = size
}

// Fail makes every request to path answer with status.
func (f *FakeService) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[path] = status
}

// OmitFromSets drops id from set responses without reporting it as not found.
func (f *FakeService) OmitFromSets(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.omitted[id] = true
}

// Requests returns the request URIs received so far, in order.
func (f *FakeService) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

// RequestCount returns how many requests were received.
func (f *FakeService) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

// Reset forgets the recorded requests.
func (f *FakeService) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = nil
}

func (f *FakeService) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, request.URL.RequestURI())
		status, failing := f.failures[request.URL.Path]
		f.mu.Unlock()

		if failing {
			writeStatus(writer, request, status, map[string]any{"error_message": http.StatusText(status)})

			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (f *FakeService) handleEntry(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make(map[string]any, len(f.resources))
	for resourceType := range f.resources {
		entries[resourceType] = map[string]any{
			constants.FieldListEndpoint: fmt.Sprintf("%s/%s/", f.basePath, resourceType),
			constants.FieldSchema:       fmt.Sprintf("%s/%s/schema/", f.basePath, resourceType),
		}
	}

	write(writer, request, entries)
}

func (f *FakeService) handleSchema(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resources, ok := f.resources[chi.URLParam(request, "type")]
	if !ok {
		writeStatus(writer, request, http.StatusNotFound, nil)

		return
	}

	fields := map[string]any{}

	for _, resource := range resources {
		for name := range resource {
			fields[name] = map[string]any{"type": "string", "readonly": true}
		}
	}

	write(writer, request, map[string]any{
		"allowed_list_http_methods":   []any{"get"},
		"allowed_detail_http_methods": []any{"get"},
		"default_format":              "application/json",
		"fields":                      fields,
	})
}

func (f *FakeService) handleDetail(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil {
		writeStatus(writer, request, http.StatusBadRequest, map[string]any{"error_message": "invalid id"})

		return
	}

	resource, ok := f.resources[chi.URLParam(request, "type")][id]
	if !ok {
		writeStatus(writer, request, http.StatusNotFound, nil)

		return
	}

	write(writer, request, resource)
}

func (f *FakeService) handleSet(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resources := f.resources[chi.URLParam(request, "type")]
	objects := []any{}
	notFound := []any{}

	for _, rawID := range strings.Split(chi.URLParam(request, "ids"), constants.BatchSeparator) {
		id, err := strconv.Atoi(rawID)
		if err != nil || f.omitted[id] {
			continue
		}

		if resource, ok := resources[id]; ok {
			objects = append(objects, resource)
		} else {
			notFound = append(notFound, rawID)
		}
	}

	payload := map[string]any{constants.FieldObjects: objects}
	if len(notFound) > 0 {
		payload[constants.FieldNotFound] = notFound
	}

	write(writer, request, payload)
}

func (f *FakeService) handleList(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resourceType := chi.URLParam(request, "type")

	resources, ok := f.resources[resourceType]
	if !ok {
		writeStatus(writer, request, http.StatusNotFound, nil)

		return
	}

	query := request.URL.Query()

	ids := make([]int, 0, len(resources))
	for id := range resources {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	matches := make([]map[string]any, 0, len(ids))

	for _, id := range ids {
		if f.matches(resources[id], query) {
			matches = append(matches, resources[id])
		}
	}

	offset := intParam(query.Get("offset"), 0)
	limit := intParam(query.Get("limit"), f.pageSize)

	objects := []any{}

	for i := offset; i < len(matches) && i < offset+limit; i++ {
		objects = append(objects, matches[i])
	}

	write(writer, request, map[string]any{
		constants.FieldMeta: map[string]any{
			"offset":                  offset,
			"limit":                   limit,
			constants.FieldTotalCount: len(matches),
		},
		constants.FieldObjects: objects,
	})
}

// matches applies Django-style lookups: "field", "field__startswith",
// "field__iexact", and related fields such as "user__username".
func (f *FakeService) matches(resource map[string]any, query map[string][]string) bool {
	for key, values := range query {
		if key == "offset" || key == "limit" || key == "format" {
			continue
		}

		parts := strings.Split(key, "__")
		operator := "exact"

		if last := parts[len(parts)-1]; last == "startswith" || last == "iexact" {
			operator = last
			parts = parts[:len(parts)-1]
		}

		value, ok := f.walk(resource, parts)
		if !ok {
			return false
		}

		text := fmt.Sprint(value)
		expected := values[0]

		switch operator {
		case "startswith":
			ok = strings.HasPrefix(text, expected)
		case "iexact":
			ok = strings.EqualFold(text, expected)
		default:
			ok = text == expected
		}

		if !ok {
			return false
		}
	}

	return true
}

func (f *FakeService) walk(resource map[string]any, path []string) (any, bool) {
	value, ok := resource[path[0]]
	if !ok {
		return nil, false
	}

	if len(path) == 1 {
		return value, true
	}

	uri, ok := value.(string)
	if !ok {
		return nil, false
	}

	segments := strings.Split(uri, "/")
	if len(segments) < 3 {
		return nil, false
	}

	id, err := strconv.Atoi(segments[len(segments)-2])
	if err != nil {
		return nil, false
	}

	related, ok := f.resources[segments[len(segments)-3]][id]
	if !ok {
		return nil, false
	}

	return f.walk(related, path[1:])
}

func intParam(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}

	return value
}

func write(writer http.ResponseWriter, request *http.Request, payload any) {
	writeStatus(writer, request, http.StatusOK, payload)
}

func writeStatus(writer http.ResponseWriter, request *http.Request, status int, payload any) {
	if strings.Contains(request.Header.Get("Accept"), "yaml") {
		writer.Header().Set("Content-Type", "text/yaml")
		writer.WriteHeader(status)

		if payload != nil {
			_ = yaml.NewEncoder(writer).Encode(payload)
		}

		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if payload != nil {
		_ = json.NewEncoder(writer).Encode(payload)
	}
}
