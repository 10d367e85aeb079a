package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkMetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type InternalErrorLoggerHook struct{}

func (i InternalErrorLoggerHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.ErrorLevel {
		Meters.InternalErrorCount.Add(context.Background(), 1)
	}
}

const (
	serviceName    = "sieve"
	serviceVersion = "v0.1.0"
	scopeName      = "github.com/hainenber/sieve"
)

type meters struct {
	IngestedLineCount  metric.Int64Counter
	ParsedRecordCount  metric.Int64Counter
	SkippedLineCount   metric.Int64Counter
	SideLogEntryCount  metric.Int64Counter
	InternalErrorCount metric.Int64Counter
}

var (
	Meters meters
)

// Bind meters to the global provider, a no-op until InitiateMetricProvider swaps in a real one
func init() {
	if err := registerMeters(otel.GetMeterProvider().Meter(scopeName)); err != nil {
		otel.Handle(err)
	}
}

func InitiateMetricProvider(logger *zerolog.Logger) (func(), error) {
	ctx := context.Background()

	// Instantiate insecure push-based OTLP exporter
	// Endpoint and protocol are read from standard OTEL_EXPORTER_OTLP_* env vars
	otlpExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return func() {}, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
	meterProvider := sdkMetric.NewMeterProvider(
		sdkMetric.WithResource(res),
		sdkMetric.WithReader(sdkMetric.NewPeriodicReader(otlpExporter)),
	)

	// Set meter provider for global OpenTelemetry imports
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		scopeName,
		metric.WithInstrumentationVersion(serviceVersion),
	)
	if err = registerMeters(meter); err != nil {
		return func() {}, err
	}

	return func() {
		// Shutdown flushes pending data points, as a batch run exits right after
		if err := meterProvider.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("")
		}
	}, nil
}

func registerMeters(meter metric.Meter) error {
	ingestedLineCount, err := meter.Int64Counter("ingestedLineCount",
		metric.WithUnit("line"),
		metric.WithDescription("Count of non-blank input lines handed to the parser"),
	)
	if err != nil {
		return err
	}
	parsedRecordCount, err := meter.Int64Counter("parsedRecordCount",
		metric.WithUnit("record"),
		metric.WithDescription("Count of records written to the output sink"),
	)
	if err != nil {
		return err
	}
	skippedLineCount, err := meter.Int64Counter("skippedLineCount",
		metric.WithUnit("line"),
		metric.WithDescription("Count of lines dropped due to payload decoding failure"),
	)
	if err != nil {
		return err
	}
	sideLogEntryCount, err := meter.Int64Counter("sideLogEntryCount",
		metric.WithDescription("Count of entries appended to the payload side log"),
	)
	if err != nil {
		return err
	}
	internalErrorCount, err := meter.Int64Counter("internalErrorCount",
		metric.WithDescription("Count of internal error"),
	)
	if err != nil {
		return err
	}

	// Assign created submitters to global meter struct for wide usage
	Meters.IngestedLineCount = ingestedLineCount
	Meters.ParsedRecordCount = parsedRecordCount
	Meters.SkippedLineCount = skippedLineCount
	Meters.SideLogEntryCount = sideLogEntryCount
	Meters.InternalErrorCount = internalErrorCount

	return nil
}

// OutcomeAttribute tags a skipped-line data point with the decoder outcome that caused it
func OutcomeAttribute(outcome string) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", outcome))
}

func InitializeNopMetricProvider() (func(), error) {
	nopLogger := zerolog.Nop()

	// Mock a OTLP receiver
	otlpMockReceiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	os.Setenv("OTEL_SERVICE_NAME", serviceName)
	os.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", otlpMockReceiver.URL)

	return InitiateMetricProvider(&nopLogger)
}
