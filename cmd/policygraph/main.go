// Command policygraph analyzes Kubernetes and Kyverno policy manifests and
// exports the dependency, topology or interaction graph.
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-policygraph/pkg/auth"
	"github.com/dd0wney/cluso-policygraph/pkg/config"
	"github.com/dd0wney/cluso-policygraph/pkg/engine"
	"github.com/dd0wney/cluso-policygraph/pkg/export"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/graphql"
	"github.com/dd0wney/cluso-policygraph/pkg/health"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/manifest"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/sink"
	tlsconf "github.com/dd0wney/cluso-policygraph/pkg/tls"
)

// namespacePlaceholder is replaced by the namespace in -out when
// -by-namespace is set.
const namespacePlaceholder = "{namespace}"

var errUsage = errors.New("usage")

type options struct {
	configPath  string
	graphKind   string
	format      string
	theme       string
	layout      string
	out         string
	logLevel    string
	query       string
	serve       string
	metricsAddr string
	compress    bool
	indent      bool
	summary     bool
	byNamespace bool
	workers     int
	tlsCert     string
	tlsKey      string
	issueToken  string
	files       []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("policygraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.graphKind, "graph", "", "graph to export: dependency, topology or interaction")
	fs.StringVar(&o.format, "format", "", "export format: json, d3, svg, yaml or dot")
	fs.StringVar(&o.theme, "theme", "", "theme name")
	fs.StringVar(&o.layout, "layout", "", "node layout: circular, hierarchical or force")
	fs.StringVar(&o.out, "out", "", "destination: - for stdout, a path, or s3://bucket/key")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.query, "query", "", "run a GraphQL query against the report instead of exporting")
	fs.StringVar(&o.serve, "serve", "", "serve /graphql and /metrics on this address after the run")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics on this address while running")
	fs.BoolVar(&o.compress, "compress", false, "snappy-compress the output")
	fs.BoolVar(&o.indent, "indent", false, "indent json output")
	fs.BoolVar(&o.summary, "summary", false, "print a summary to stderr")
	fs.BoolVar(&o.byNamespace, "by-namespace", false, "analyze and export each namespace separately")
	fs.IntVar(&o.workers, "workers", 0, "namespaces analyzed concurrently with -by-namespace")
	fs.StringVar(&o.tlsCert, "tls-cert", "", "certificate file for -serve")
	fs.StringVar(&o.tlsKey, "tls-key", "", "private key file for -serve")
	fs.StringVar(&o.issueToken, "issue-token", "", "print a viewer token for this subject, signed with $"+auth.EnvSecret+", and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: policygraph [flags] [manifest.yaml ...]")
		fmt.Fprintln(fs.Output(), "Reads stdin when no manifest is given.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("%w: %v", errUsage, err)
	}
	o.files = fs.Args()
	return o, nil
}

// resolveConfig layers the file, the environment and the flags, in that
// order.
func resolveConfig(o options) (config.File, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Output.Graph, o.graphKind)
	set(&cfg.Output.Format, o.format)
	set(&cfg.Output.Destination, o.out)
	set(&cfg.Export.Theme, o.theme)
	set(&cfg.Export.Layout, o.layout)
	set(&cfg.Logging.Level, o.logLevel)
	set(&cfg.Server.TLS.CertFile, o.tlsCert)
	set(&cfg.Server.TLS.KeyFile, o.tlsKey)
	cfg.Output.Compress = cfg.Output.Compress || o.compress
	cfg.Export.Indent = cfg.Export.Indent || o.indent
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	return cfg, cfg.Validate()
}

type app struct {
	opts   options
	cfg    config.File
	logger logging.Logger
	reg    *metrics.Registry
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// newS3Client builds the client for s3 destinations.
var newS3Client = func(ctx context.Context) (sink.PutObjectAPI, error) {
	return sink.NewS3Client(ctx, sink.S3OptionsFromEnv())
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "policygraph: %v\n", err)
		return 2
	}

	a := &app{
		opts:   o,
		cfg:    cfg,
		logger: logging.NewJSONLogger(stderr, logging.ParseLevel(cfg.Logging.Level)),
		reg:    metrics.NewRegistry(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	if err := a.run(ctx); err != nil {
		a.logger.Error("run failed", logging.Error(err))
		fmt.Fprintf(stderr, "policygraph: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) run(ctx context.Context) error {
	if a.opts.issueToken != "" {
		return a.printToken(a.opts.issueToken)
	}
	if a.opts.metricsAddr != "" {
		stop := a.listen(a.opts.metricsAddr, http.NewServeMux(), nil)
		defer stop()
	}

	bundle, err := a.decode()
	if err != nil {
		return err
	}
	opts := a.cfg.EngineOptions(a.logger, a.reg)

	if a.opts.byNamespace {
		return a.runByNamespace(ctx, bundle, opts)
	}

	report, err := engine.AnalyzeBundle(ctx, bundle, opts)
	if err != nil {
		return err
	}
	if a.opts.summary {
		fmt.Fprintln(a.stderr, renderSummary(report))
	}

	if a.opts.query != "" {
		if err := a.runQuery(report); err != nil {
			return err
		}
	} else if err := a.export(ctx, report, a.cfg.Output.Destination); err != nil {
		return err
	}

	if a.opts.serve != "" {
		return a.serve(ctx, report)
	}
	return nil
}

func (a *app) decode() (*manifest.Bundle, error) {
	mopts := manifest.Options{Logger: a.logger, Metrics: a.reg}
	if len(a.opts.files) == 0 || (len(a.opts.files) == 1 && a.opts.files[0] == "-") {
		return manifest.Decode(a.stdin, mopts)
	}
	return manifest.DecodeFiles(a.opts.files, mopts)
}

func (a *app) runByNamespace(ctx context.Context, bundle *manifest.Bundle, opts engine.Options) error {
	dest := a.cfg.Output.Destination
	reports, err := engine.AnalyzeByNamespace(ctx, bundle.Policies, opts, max(a.cfg.Workers, 1))
	if err != nil {
		return err
	}
	if len(reports) > 1 && !strings.Contains(dest, namespacePlaceholder) && dest != "-" && dest != "" {
		return fmt.Errorf("-by-namespace needs %s in -out when writing %d namespaces", namespacePlaceholder, len(reports))
	}
	for _, nr := range reports {
		if a.opts.summary {
			fmt.Fprintf(a.stderr, "%s\n%s\n", nr.Namespace, renderSummary(nr.Report))
		}
		if err := a.export(ctx, nr.Report, strings.ReplaceAll(dest, namespacePlaceholder, nr.Namespace)); err != nil {
			return fmt.Errorf("namespace %s: %w", nr.Namespace, err)
		}
	}
	return nil
}

// selectGraph returns the configured graph of r.
func selectGraph(r *engine.Report, kind string) (graph.Exportable, error) {
	switch kind {
	case config.GraphTopology:
		if r.Topology == nil {
			return nil, errors.New("no pods, services or network policies to build a topology from")
		}
		return r.Topology, nil
	case config.GraphInteraction:
		return r.Interactions, nil
	default:
		return r.Dependency, nil
	}
}

func (a *app) export(ctx context.Context, r *engine.Report, rawDest string) error {
	g, err := selectGraph(r, a.cfg.Output.Graph)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return err
	}
	res, err := export.Export(g, format, a.cfg.ExportConfig(a.logger, a.reg))
	if err != nil {
		return err
	}

	dest, err := sink.ParseDestination(rawDest)
	if err != nil {
		return err
	}
	w := &sink.Writer{Stdout: a.stdout, Compress: a.cfg.Output.Compress, Logger: a.logger, Metrics: a.reg}
	if dest.Scheme == sink.SchemeS3 {
		if w.S3, err = newS3Client(ctx); err != nil {
			return err
		}
	}
	written, err := w.Write(ctx, dest, res.Data, format.ContentType())
	if err != nil {
		return err
	}
	a.logger.Info("exported",
		logging.Format(string(format)),
		logging.String("graph", a.cfg.Output.Graph),
		logging.String("graphId", res.GraphID),
		logging.String("destination", written.String()),
		logging.Int("bytes", len(res.Data)))
	return nil
}

func (a *app) runQuery(r *engine.Report) error {
	schema, err := graphql.GenerateSchema(r)
	if err != nil {
		return err
	}
	result := graphql.ExecuteWithDepthLimit(schema, a.opts.query, a.cfg.Server.MaxQueryDepth, nil)
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.HasErrors() {
		return fmt.Errorf("query failed: %s", result.Errors[0].Message)
	}
	return nil
}

// listen serves mux plus /metrics in the background and returns a function
// that shuts the server down. A nil tlsCfg serves plain HTTP.
func (a *app) listen(addr string, mux *http.ServeMux, tlsCfg *tls.Config) func() {
	mux.Handle("/metrics", a.reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, TLSConfig: tlsCfg, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		var err error
		if tlsCfg != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server", logging.String("addr", addr), logging.Error(err))
		}
	}()
	a.logger.Info("listening", logging.String("addr", addr), logging.Bool("tls", tlsCfg != nil))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// tokenManager returns nil when no signing secret is configured.
func (a *app) tokenManager() (*auth.TokenManager, error) {
	secret := os.Getenv(auth.EnvSecret)
	if secret == "" {
		return nil, nil
	}
	return auth.NewTokenManager(secret, a.cfg.Server.TokenTTL)
}

func (a *app) printToken(subject string) error {
	tm, err := a.tokenManager()
	if err != nil {
		return err
	}
	if tm == nil {
		return fmt.Errorf("%s is not set", auth.EnvSecret)
	}
	token, err := tm.GenerateToken(subject, auth.RoleViewer)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, token)
	return err
}

// handler builds the -serve routes. /graphql requires a bearer token when a
// signing secret is configured.
func (a *app) handler(r *engine.Report) (*http.ServeMux, error) {
	schema, err := graphql.GenerateSchema(r)
	if err != nil {
		return nil, err
	}
	hc := health.NewHealthChecker()
	hc.RegisterReadinessCheck("report", health.ReportCheck(func() health.ReportState {
		return reportState(r)
	}))

	var gql http.Handler = graphql.NewGraphQLHandler(schema, a.cfg.Server.MaxQueryDepth, a.logger)
	tm, err := a.tokenManager()
	if err != nil {
		return nil, err
	}
	if tm != nil {
		gql = auth.Middleware(tm, a.logger, gql)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", gql)
	mux.Handle("/healthz", hc.LivenessHandler())
	mux.Handle("/readyz", hc.ReadinessHandler())
	return mux, nil
}

func (a *app) serve(ctx context.Context, r *engine.Report) error {
	mux, err := a.handler(r)
	if err != nil {
		return err
	}
	tlsCfg, err := tlsconf.ServerConfig(a.cfg.Server.TLS)
	if err != nil {
		return err
	}
	stop := a.listen(a.opts.serve, mux, tlsCfg)
	defer stop()
	<-ctx.Done()
	a.logger.Info("shutting down")
	return nil
}

func reportState(r *engine.Report) health.ReportState {
	warnings := 0
	for _, d := range r.Diagnostics {
		if d.Level == graph.LevelWarning {
			warnings++
		}
	}
	return health.ReportState{
		Loaded:    true,
		Policies:  len(r.Dependency.Nodes),
		Conflicts: len(r.Interactions.ByType[interaction.Conflict]),
		Cycles:    len(r.Dependency.Cycles),
		Warnings:  warnings,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
