package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const userAgent = "enrollsync/1.0"

// APIClient talks to the school-management API.
// Requests carry the static API key and share one cookie jar, so session cookies
// set by the API are sent back like a browser would.
type APIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAPIClient(baseURL string, apiKey string, timeout time.Duration) *APIClient {
	jar, _ := cookiejar.New(nil)
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Jar: jar, Timeout: timeout},
	}
}

// DoRequest makes a request and returns the response and body
// This function encapsulates the boilerplate for logging and reading the response body
func (c *APIClient) DoRequest(req *http.Request) (*http.Response, []byte, error) {
	log.Debug().Str("method", req.Method).Str("host", req.Host).Str("path", req.URL.Path).Msg("Request")

	// Send the request (while acquiring timings)
	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		log.Error().Err(err).Str("path", req.URL.Path).Msg("Request Error")
		return nil, nil, err
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)

	if err != nil {
		log.Err(err).Int("code", resp.StatusCode).Str("content-type", resp.Header.Get("Content-Type")).Int("content-length", len(body)).
			Str("duration", duration.String()).Msg("Response (Unable to Read Body)")
		return nil, nil, err
	}

	log.Debug().Int("code", resp.StatusCode).Str("content-type", resp.Header.Get("Content-Type")).Int("content-length", len(body)).
		Str("duration", duration.String()).Msg("Response")
	return resp, body, nil
}

// ApplyApiHeaders applies the auth and content headers the school API expects
func (c *APIClient) ApplyApiHeaders(req *http.Request) {
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
}

// NewRequest builds a request for an API method such as "students.add_course".
func (c *APIClient) NewRequest(ctx context.Context, method string, endpoint string, query url.Values, body interface{}) (*http.Request, error) {
	endpointUrl, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid api url")
	}
	if len(query) > 0 {
		endpointUrl.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		marshalled, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(marshalled)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpointUrl.String(), reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	c.ApplyApiHeaders(request)
	return request, nil
}

// Call sends a request and decodes a 2xx JSON body into out (which may be nil).
// Any other status is returned as an APIError.
func (c *APIClient) Call(ctx context.Context, method string, endpoint string, query url.Values, body interface{}, out interface{}) error {
	request, err := c.NewRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}

	response, responseBody, err := c.DoRequest(request)
	if err != nil {
		return errors.Wrapf(err, "error sending %s request", endpoint)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return errorFromResponse(endpoint, response, responseBody)
	}

	if out == nil || len(responseBody) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(responseBody, out), "failed to decode %s response", endpoint)
}

// errorFromResponse extracts the user-facing detail from a failed response.
// Only JSON bodies carry a detail; anything else is logged and left without one.
func errorFromResponse(endpoint string, response *http.Response, body []byte) error {
	apiErr := APIError{Path: endpoint, Code: response.StatusCode}
	contentType := response.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		var errorResponse ErrorResponse
		if err := json.Unmarshal(body, &errorResponse); err != nil {
			log.Error().Err(err).Str("path", endpoint).Msg("Error parsing error response")
			return apiErr
		}
		apiErr.Detail = errorResponse.Detail
		return apiErr
	}

	if strings.Contains(contentType, "text/html") {
		// Gateways in front of the API answer with HTML pages
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			apiErr.Status = strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
		}
	}
	log.Warn().Str("path", endpoint).Int("code", response.StatusCode).Str("content-type", contentType).
		Str("status", apiErr.Status).Msg("Non-JSON Error Response")

	return apiErr
}
