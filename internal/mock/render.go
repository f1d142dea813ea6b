package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

func newTemplate(name, body string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.TxtFuncMap()).Parse(body)
}

// rawBody returns the configured body before templating.
func (r ResponseDefinition) rawBody() ([]byte, error) {
	if r.JSONBody != nil {
		data, err := json.Marshal(r.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonBody: %w", err)
		}
		return data, nil
	}
	return []byte(r.Body), nil
}

// templateData exposes the request to response templates.
func templateData(r *http.Request, body []byte) map[string]interface{} {
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	headers := make(map[string]string)
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return map[string]interface{}{
		"request": map[string]interface{}{
			"method":  r.Method,
			"path":    r.URL.Path,
			"url":     r.URL.RequestURI(),
			"query":   query,
			"headers": headers,
			"body":    string(body),
		},
	}
}

// body renders the response body for r.
func (m *Mapping) body(r *http.Request) ([]byte, error) {
	if m.tmpl == nil {
		return m.Response.rawBody()
	}

	var reqBody []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		reqBody = data
	}

	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, templateData(r, reqBody)); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return buf.Bytes(), nil
}
