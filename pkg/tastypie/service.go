package tastypie

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Service describes where the API lives and recognises its resource URLs.
//
// For a service URL of "http://h/api/1/" the base URL is "http://h" and the
// base path "/api/1/". Any string starting with the base path is taken to be
// one of the service's resource URLs, shaped ".../<type>/<id>/".
type Service struct {
	URL      string
	BaseURL  string
	BasePath string
}

// NewService derives the base URL and base path from the entry URL.
func NewService(serviceURL string) (*Service, error) {
	if serviceURL == "" {
		return nil, ErrServiceURLRequired
	}

	if !strings.HasSuffix(serviceURL, "/") {
		serviceURL += "/"
	}

	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidServiceURL, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidServiceURL, serviceURL)
	}

	return &Service{
		URL:      serviceURL,
		BaseURL:  parsed.Scheme + "://" + parsed.Host,
		BasePath: parsed.Path,
	}, nil
}

// IsResourceURL reports whether value is a string naming one of our resources.
func (s *Service) IsResourceURL(value any) bool {
	text, ok := value.(string)

	return ok && strings.HasPrefix(text, s.BasePath)
}

// ParseResourceURL splits a resource URL into its type and id, which are the
// two segments before the trailing slash.
func (s *Service) ParseResourceURL(resourceURL string) (ResourceRef, error) {
	segments := strings.Split(resourceURL, "/")
	if len(segments) < 3 {
		return ResourceRef{}, fmt.Errorf("%w: %s", ErrMalformedResourceURL, resourceURL)
	}

	resourceType := segments[len(segments)-3]
	rawID := segments[len(segments)-2]

	id, err := strconv.Atoi(rawID)
	if err != nil || resourceType == "" {
		return ResourceRef{}, fmt.Errorf("%w: %s", ErrMalformedResourceURL, resourceURL)
	}

	return ResourceRef{Type: resourceType, ID: id}, nil
}

// AbsoluteURL turns a server-relative path into a full URL.
func (s *Service) AbsoluteURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return s.BaseURL + path
}
