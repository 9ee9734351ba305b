package gen

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Option configures a generation run.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	typesModule     string
	servicesDir     string
	transportModule string
	runID           string
}

func defaultConfig() config {
	return config{
		logger:          slog.New(slog.DiscardHandler),
		typesModule:     "types/common",
		servicesDir:     "services",
		transportModule: "services/request",
	}
}

// WithLogger routes run logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTypesModule sets the module that declares every interface.
func WithTypesModule(module string) Option {
	return func(c *config) {
		if m := cleanModule(module); m != "" {
			c.typesModule = m
		}
	}
}

// WithServicesDir sets the directory holding one module per service group.
func WithServicesDir(dir string) Option {
	return func(c *config) {
		if d := cleanModule(dir); d != "" {
			c.servicesDir = d
		}
	}
}

// WithTransportModule sets the module default-exporting the HTTP transport.
func WithTransportModule(module string) Option {
	return func(c *config) {
		if m := cleanModule(module); m != "" {
			c.transportModule = m
		}
	}
}

// WithRunID fixes the run id instead of generating a random one.
func WithRunID(id string) Option {
	return func(c *config) { c.runID = id }
}

func cleanModule(m string) string {
	m = strings.Trim(strings.TrimSpace(m), "/")
	if m == "" {
		return ""
	}
	m = path.Clean(m)
	return strings.TrimSuffix(m, ".ts")
}

// run is the state of one generation pass. Nothing in it outlives Generate.
type run struct {
	cfg      config
	id       string
	log      *slog.Logger
	names    *namer
	diags    Diagnostics
	declared map[string]struct{} // interface names in the type unit
}

func newRun(cfg config) *run {
	id := cfg.runID
	if id == "" {
		id = uuid.NewString()
	}
	return &run{
		cfg:      cfg,
		id:       id,
		log:      cfg.logger.With("run", id),
		names:    newNamer(),
		declared: map[string]struct{}{},
	}
}

// report records a diagnostic and logs it at the matching level.
func (r *run) report(d Diagnostic) {
	r.diags = append(r.diags, d)
	attrs := []any{"code", d.Code}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}
	if d.Method != "" {
		attrs = append(attrs, "method", d.Method)
	}
	if d.Schema != "" {
		attrs = append(attrs, "schema", d.Schema)
	}
	r.log.Log(context.Background(), d.Severity.level(), d.Message, attrs...)
}
