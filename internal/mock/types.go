package mock

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// DefaultPriority is the priority of a mapping that does not set one.
const DefaultPriority = 5

// Mapping pairs a request pattern with the response served for it.
type Mapping struct {
	Name     string             `json:"name,omitempty"`
	Priority int                `json:"priority,omitempty"`
	Request  RequestPattern     `json:"request"`
	Response ResponseDefinition `json:"response"`

	// source is the file the mapping was read from.
	source string
	tmpl   *template.Template
}

// RequestPattern describes which requests a mapping answers.
type RequestPattern struct {
	Method          string                  `json:"method,omitempty"`
	URL             string                  `json:"url,omitempty"`
	URLPath         string                  `json:"urlPath,omitempty"`
	URLPattern      string                  `json:"urlPattern,omitempty"`
	URLPathPattern  string                  `json:"urlPathPattern,omitempty"`
	Headers         map[string]ValuePattern `json:"headers,omitempty"`
	QueryParameters map[string]ValuePattern `json:"queryParameters,omitempty"`

	urlRegexp *regexp.Regexp
}

// ValuePattern matches a single header or query parameter value.
type ValuePattern struct {
	EqualTo  *string `json:"equalTo,omitempty"`
	Contains string  `json:"contains,omitempty"`
	Matches  string  `json:"matches,omitempty"`
	Absent   bool    `json:"absent,omitempty"`

	re *regexp.Regexp
}

// ResponseDefinition is the canned response of a mapping.
type ResponseDefinition struct {
	Status                 int               `json:"status,omitempty"`
	Body                   string            `json:"body,omitempty"`
	JSONBody               interface{}       `json:"jsonBody,omitempty"`
	Headers                map[string]string `json:"headers,omitempty"`
	FixedDelayMilliseconds int               `json:"fixedDelayMilliseconds,omitempty"`
	Template               bool              `json:"template,omitempty"`
}

// Source returns the file the mapping was loaded from.
func (m *Mapping) Source() string {
	return m.source
}

// EffectivePriority returns the priority used for ordering.
func (m *Mapping) EffectivePriority() int {
	if m.Priority <= 0 {
		return DefaultPriority
	}
	return m.Priority
}

// String describes the mapping for logs.
func (m *Mapping) String() string {
	method := m.Request.Method
	if method == "" {
		method = "ANY"
	}
	target := firstNonEmpty(m.Request.URL, m.Request.URLPath, m.Request.URLPattern, m.Request.URLPathPattern, "*")
	if m.Name != "" {
		return fmt.Sprintf("%s (%s %s)", m.Name, method, target)
	}
	return fmt.Sprintf("%s %s", method, target)
}

// compile validates the mapping and prepares its regular expressions and
// template.
func (m *Mapping) compile() error {
	req := &m.Request

	set := 0
	for _, v := range []string{req.URL, req.URLPath, req.URLPattern, req.URLPathPattern} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("mapping %s: only one of url, urlPath, urlPattern, urlPathPattern may be set", m)
	}

	if p := firstNonEmpty(req.URLPattern, req.URLPathPattern); p != "" {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return fmt.Errorf("mapping %s: invalid url pattern: %w", m, err)
		}
		req.urlRegexp = re
	}

	for name, vp := range req.Headers {
		if err := vp.compile(); err != nil {
			return fmt.Errorf("mapping %s: header %s: %w", m, name, err)
		}
		req.Headers[name] = vp
	}
	for name, vp := range req.QueryParameters {
		if err := vp.compile(); err != nil {
			return fmt.Errorf("mapping %s: query parameter %s: %w", m, name, err)
		}
		req.QueryParameters[name] = vp
	}

	if m.Response.Body != "" && m.Response.JSONBody != nil {
		return fmt.Errorf("mapping %s: body and jsonBody are mutually exclusive", m)
	}
	if m.Response.Status != 0 && (m.Response.Status < 100 || m.Response.Status > 599) {
		return fmt.Errorf("mapping %s: invalid status %d", m, m.Response.Status)
	}
	if m.Response.Template {
		body, err := m.Response.rawBody()
		if err != nil {
			return fmt.Errorf("mapping %s: %w", m, err)
		}
		tmpl, err := newTemplate(m.String(), string(body))
		if err != nil {
			return fmt.Errorf("mapping %s: invalid response template: %w", m, err)
		}
		m.tmpl = tmpl
	}
	return nil
}

func (v *ValuePattern) compile() error {
	if v.Matches == "" {
		return nil
	}
	re, err := regexp.Compile("^(?:" + v.Matches + ")$")
	if err != nil {
		return fmt.Errorf("invalid matches expression: %w", err)
	}
	v.re = re
	return nil
}

// match checks a value; present is false when the header or parameter is
// missing from the request.
func (v ValuePattern) match(value string, present bool) bool {
	if v.Absent {
		return !present
	}
	if !present {
		return false
	}
	if v.EqualTo != nil && value != *v.EqualTo {
		return false
	}
	if v.Contains != "" && !strings.Contains(value, v.Contains) {
		return false
	}
	if v.re != nil && !v.re.MatchString(value) {
		return false
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
