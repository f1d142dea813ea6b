package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stubrunner/internal/api"
	"stubrunner/internal/registry"
	"stubrunner/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *runner.Report {
	return &runner.Report{
		Started: []api.Collaborator{
			{Alias: "billing", Host: "127.0.0.1", Port: 20000, Registered: true},
			{Alias: "ledger", Host: "127.0.0.1", Port: 20001},
		},
		Failures: []runner.Outcome{
			{Alias: "ledger", Err: &api.RegistrationError{Alias: "ledger", Err: errors.New("connection refused")}},
			{Alias: "audit", Err: &api.PortExhaustionError{Alias: "audit", Min: 20000, Max: 20001}},
		},
	}
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range ValidOutputFormats {
		assert.NoError(t, ValidateOutputFormat(string(f)))
	}
	assert.Error(t, ValidateOutputFormat("xml"))
}

func TestPrintReport_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, PrinterOptions{}).PrintReport("Collaborators", sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Collaborators")
	assert.Contains(t, out, "ALIAS")
	assert.Contains(t, out, "http://127.0.0.1:20000")
	assert.Contains(t, out, "unregistered")
	assert.Contains(t, out, "Failures")
	assert.Contains(t, out, "port-exhausted")
	assert.Contains(t, out, "registration")
}

func TestPrintReport_PlainNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, PrinterOptions{Format: OutputFormatPlain, NoHeaders: true})
	require.NoError(t, p.PrintReport("Collaborators", sampleReport()))

	out := buf.String()
	assert.NotContains(t, out, "ALIAS")
	assert.NotContains(t, out, "╭")
	assert.NotContains(t, out, "\x1b[", "plain output has no colors")
	assert.Contains(t, out, "billing")
}

func TestPrintReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, PrinterOptions{}).PrintReport("", nil))
	assert.Contains(t, buf.String(), "no collaborators running")
	assert.NotContains(t, buf.String(), "Failures")
}

func TestPrintReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, PrinterOptions{Format: OutputFormatJSON}).PrintReport("", sampleReport()))

	var view reportView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	require.Len(t, view.Collaborators, 2)
	assert.True(t, view.Collaborators[0].Registered)
	assert.False(t, view.Collaborators[1].Registered)
	require.Len(t, view.Failures, 2)
	assert.Equal(t, "audit", view.Failures[1].Alias)
	assert.Equal(t, "port-exhausted", view.Failures[1].Kind)
}

func TestPrintRegistrations_YAML(t *testing.T) {
	regs := []*registry.Registration{{
		ID:           "id-1",
		Alias:        "billing",
		Host:         "127.0.0.1",
		Port:         20000,
		BasePath:     "com/example",
		RegisteredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, PrinterOptions{Format: OutputFormatYAML}).PrintRegistrations(regs))

	var views []registrationView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "127.0.0.1:20000", views[0].Address)
	assert.Equal(t, "2026-01-02T03:04:05Z", views[0].RegisteredAt)
}

func TestPrintLocation_Table(t *testing.T) {
	var buf bytes.Buffer
	coords := api.NewCoordinates("com.example", "stubs").WithVersion("1.0.0")
	loc := api.LocationFromPath("/tmp/cache/stubs-1.0.0.jar")

	require.NoError(t, NewPrinter(&buf, PrinterOptions{}).PrintLocation(coords, loc))
	assert.Contains(t, buf.String(), "com.example:stubs:1.0.0")
	assert.Contains(t, buf.String(), "stubs-1.0.0.jar")
}

func TestProgress_QuietIsNil(t *testing.T) {
	p := StartProgress("Resolving", true)
	assert.Nil(t, p)
	// nil progress is usable
	p.Done("done")
	p.Fail("failed")
}

func TestProgress_Stop(t *testing.T) {
	var buf bytes.Buffer
	p := startProgress(&buf, "Resolving", false)
	require.NotNil(t, p)
	p.Done("")
}

func TestPrintReport_PlainErrorsOnOneLine(t *testing.T) {
	report := &runner.Report{
		Failures: []runner.Outcome{
			{Alias: "ledger", Err: errors.New("first line\nsecond line")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, PrinterOptions{Format: OutputFormatPlain}).PrintReport("", report))
	assert.Contains(t, buf.String(), "first line second line")
}
