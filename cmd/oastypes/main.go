package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/oastypes/oastypes/configs"
	"github.com/oastypes/oastypes/internal/adapter/outbound/github"
	"github.com/oastypes/oastypes/internal/adapter/outbound/gosrc"
	"github.com/oastypes/oastypes/internal/adapter/outbound/openapi"
	"github.com/oastypes/oastypes/internal/domain"
	"github.com/oastypes/oastypes/internal/usecase"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	// === Command Line Flags ===
	var (
		outFile    string
		pkgName    string
		strictFlag bool
		configPath string
	)
	flag.StringVar(&outFile, "out", "types.gen.go", "Output file for the generated Go source")
	flag.StringVar(&pkgName, "package", "types", "Package name for the generated Go source")
	flag.BoolVar(&strictFlag, "strict", false, "Fail on unsupported schema shapes instead of skipping them")
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file listing generation targets")
	flag.Parse()

	if configPath != "" {
		os.Setenv("OASTYPES_CONFIG_FILE", configPath)
	}

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if strictFlag {
		cfg.Strict = true
	}

	// === Logging ===
	logLevel := cfg.ParsedLogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	logger.Debug("Logger initialized.", slog.String("level", logLevel.String()))

	// === Generation Targets ===
	// Positional arguments are one-shot targets sharing the -out/-package
	// flags; config file targets run alongside them.
	targets := make([]usecase.GenerationTarget, 0, len(cfg.Targets)+flag.NArg())
	for _, t := range cfg.Targets {
		target := usecase.GenerationTarget{
			Source:  usecase.SchemaSourceConfig{URL: t.Spec, Headers: t.Headers},
			Package: t.Package,
			OutFile: t.Out,
		}
		if target.Package == "" {
			target.Package = pkgName
		}
		if target.OutFile == "" {
			target.OutFile = outFile
		}
		targets = append(targets, target)
	}
	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "At most one spec argument per invocation; use a config file for multiple targets.")
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 1 {
		targets = append(targets, usecase.GenerationTarget{
			Source:  usecase.SchemaSourceConfig{URL: flag.Arg(0)},
			Package: pkgName,
			OutFile: outFile,
		})
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "No spec argument and no configured targets.")
		flag.Usage()
		os.Exit(2)
	}

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === Dependency Injection ===
	httpClient := &http.Client{
		Timeout: cfg.HTTPClientTimeout,
	}
	logger.Debug("HTTP Client configured.", slog.Duration("timeout", cfg.HTTPClientTimeout))

	openapiFetcher := openapi.NewSchemaFetcher(httpClient, cfg.ProjectRoot, logger)
	githubFetcher := github.NewFetcher(logger)
	fetchers := map[domain.SourceKind]usecase.SchemaFetcher{
		domain.SourceKindOpenAPI: openapiFetcher,
		domain.SourceKindGitHub:  githubFetcher,
	}

	generator := openapi.NewDefinitionGenerator(logger, cfg.Strict)
	renderer := gosrc.NewRenderer(logger)
	writer := gosrc.NewFileWriter(cfg.ProjectRoot, logger)

	genUC := usecase.NewGenerateTypesUseCase(fetchers, generator, renderer, writer, logger)

	// === Generation ===
	ctx := context.Background()
	tracer := otel.Tracer("oastypes")
	failed := false
	for _, target := range targets {
		spanCtx, span := tracer.Start(ctx, "generate",
			trace.WithAttributes(attribute.String("source.url", target.Source.URL)))
		if err := genUC.Execute(spanCtx, target); err != nil {
			logger.Error("Generation failed.",
				slog.String("source", target.Source.URL),
				slog.Any("error", err))
			failed = true
		}
		span.End()
	}
	if failed {
		os.Exit(1)
	}
}

// initOtelProvider initializes the OpenTelemetry SDK and sets up the OTLP
// trace exporter. It returns a shutdown function to be called on exit.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" {
		slog.Debug("OTEL_EXPORTER_OTLP_ENDPOINT not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	slog.Info("Initializing OTLP exporter.", slog.String("endpoint", cfg.OtelExporterOtlpEndpoint))

	grpcOpts := []grpc.DialOption{}
	if cfg.OtelExporterOtlpInsecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		slog.Warn("Using insecure connection for OTLP exporter.")
	}

	conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("oastypes"),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
