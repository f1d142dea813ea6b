package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"

	"stubrunner/internal/api"
	"stubrunner/internal/registry"
	"stubrunner/internal/runner"
	"stubrunner/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable renders bordered tables with colors
	OutputFormatTable OutputFormat = "table"
	// OutputFormatPlain renders tables without borders or colors, for piping
	OutputFormatPlain OutputFormat = "plain"
	// OutputFormatJSON renders JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML renders YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats lists every accepted --output value.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatPlain,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	for _, f := range ValidOutputFormats {
		if OutputFormat(format) == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q (valid: table, plain, json, yaml)", format)
}

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	Format    OutputFormat
	NoHeaders bool
}

// Printer writes command results in the selected format.
type Printer struct {
	out     io.Writer
	options PrinterOptions
}

// NewPrinter creates a printer writing to out. An empty format means table.
func NewPrinter(out io.Writer, options PrinterOptions) *Printer {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	return &Printer{out: out, options: options}
}

type collaboratorView struct {
	Alias      string `json:"alias" yaml:"alias"`
	Host       string `json:"host" yaml:"host"`
	Port       int    `json:"port" yaml:"port"`
	URL        string `json:"url" yaml:"url"`
	Registered bool   `json:"registered" yaml:"registered"`
}

type failureView struct {
	Alias string `json:"alias" yaml:"alias"`
	Kind  string `json:"kind" yaml:"kind"`
	Error string `json:"error" yaml:"error"`
}

type reportView struct {
	Collaborators []collaboratorView `json:"collaborators" yaml:"collaborators"`
	Failures      []failureView      `json:"failures" yaml:"failures"`
}

func newReportView(report *runner.Report) reportView {
	view := reportView{
		Collaborators: []collaboratorView{},
		Failures:      []failureView{},
	}
	if report == nil {
		return view
	}
	for _, c := range report.Started {
		view.Collaborators = append(view.Collaborators, collaboratorView{
			Alias:      c.Alias,
			Host:       c.Host,
			Port:       c.Port,
			URL:        c.URL(),
			Registered: c.Registered,
		})
	}
	for _, f := range report.Failures {
		view.Failures = append(view.Failures, failureView{
			Alias: f.Alias,
			Kind:  f.Kind(),
			Error: f.Err.Error(),
		})
	}
	return view
}

// PrintReport writes the collaborators of report followed by its failures.
func (p *Printer) PrintReport(title string, report *runner.Report) error {
	view := newReportView(report)
	if done, err := p.printStructured(view); done {
		return err
	}

	t := p.newTable(title)
	p.header(t, table.Row{"Alias", "Address", "URL", "Status"})
	for _, c := range view.Collaborators {
		status := p.colorize(text.FgGreen, "registered")
		if !c.Registered {
			status = p.colorize(text.FgYellow, "unregistered")
		}
		t.AppendRow(table.Row{c.Alias, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.URL, status})
	}
	if len(view.Collaborators) == 0 {
		t.AppendRow(table.Row{"-", "-", "-", "no collaborators running"})
	}
	t.Render()

	if len(view.Failures) == 0 {
		return nil
	}
	fmt.Fprintln(p.out)
	ft := p.newTable("Failures")
	p.header(ft, table.Row{"Alias", "Kind", "Error"})
	ft.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, f := range view.Failures {
		msg := f.Error
		if p.options.Format == OutputFormatPlain {
			msg = strings.SingleLine(msg, strings.DefaultCellMaxLen)
		}
		ft.AppendRow(table.Row{f.Alias, p.colorize(text.FgRed, f.Kind), msg})
	}
	ft.Render()
	return nil
}

type registrationView struct {
	Alias        string `json:"alias" yaml:"alias"`
	Address      string `json:"address" yaml:"address"`
	BasePath     string `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	ID           string `json:"id" yaml:"id"`
	RegisteredAt string `json:"registeredAt" yaml:"registeredAt"`
}

// PrintRegistrations writes registry entries.
func (p *Printer) PrintRegistrations(regs []*registry.Registration) error {
	views := make([]registrationView, 0, len(regs))
	for _, r := range regs {
		v := registrationView{
			Alias:    r.Alias,
			Address:  r.Collaborator().Address(),
			BasePath: r.BasePath,
			ID:       r.ID,
		}
		if !r.RegisteredAt.IsZero() {
			v.RegisteredAt = r.RegisteredAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		views = append(views, v)
	}
	if done, err := p.printStructured(views); done {
		return err
	}

	t := p.newTable("Registered collaborators")
	p.header(t, table.Row{"Alias", "Address", "Base Path", "Registered At"})
	for _, v := range views {
		t.AppendRow(table.Row{v.Alias, v.Address, orDash(v.BasePath), orDash(v.RegisteredAt)})
	}
	t.Render()
	return nil
}

type locationView struct {
	Coordinates string `json:"coordinates" yaml:"coordinates"`
	Location    string `json:"location" yaml:"location"`
}

// PrintLocation writes the result of an artifact resolution.
func (p *Printer) PrintLocation(coords api.Coordinates, loc api.ArtifactLocation) error {
	view := locationView{Coordinates: coords.String(), Location: loc.String()}
	if done, err := p.printStructured(view); done {
		return err
	}

	t := p.newTable("Stub artifact")
	p.header(t, table.Row{"Coordinates", "Location"})
	t.AppendRow(table.Row{view.Coordinates, view.Location})
	t.Render()
	return nil
}

// printStructured writes v as JSON or YAML. It reports false when the
// format is a table format.
func (p *Printer) printStructured(v interface{}) (bool, error) {
	switch p.options.Format {
	case OutputFormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (p *Printer) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	if p.options.Format == OutputFormatPlain {
		style := table.StyleDefault
		style.Options = table.OptionsNoBordersAndSeparators
		style.Box.PaddingLeft = ""
		style.Box.PaddingRight = "   "
		t.SetStyle(style)
		return t
	}
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func (p *Printer) header(t table.Writer, row table.Row) {
	if !p.options.NoHeaders {
		t.AppendHeader(row)
	}
}

func (p *Printer) colorize(color text.Color, s string) string {
	if p.options.Format != OutputFormatTable {
		return s
	}
	return color.Sprint(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
