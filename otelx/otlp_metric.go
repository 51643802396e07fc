package otelx

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// SetupOTLPMeterProvider pushes measurements to an OTLP collector on a periodic reader.
func SetupOTLPMeterProvider(ctx context.Context, c *MeterConfig) (*sdkmetric.MeterProvider, error) {
	exp, err := getMetricExporter(ctx, c)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if c.Providers.OTLP.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(c.Providers.OTLP.Interval))
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	), nil
}

func getMetricExporter(ctx context.Context, c *MeterConfig) (sdkmetric.Exporter, error) {
	switch c.Providers.OTLP.Protocol {
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(c.Providers.OTLP.ServerURL),
		}
		if c.Providers.OTLP.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "grpc", "":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(c.Providers.OTLP.ServerURL),
		}
		if c.Providers.OTLP.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, errors.Errorf("unknown protocol: %s", c.Providers.OTLP.Protocol)
	}
}

func SetupStdoutMeterProvider(c *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []stdoutmetric.Option{}
	if c.Providers.Stdout.Pretty {
		opts = append(opts, stdoutmetric.WithPrettyPrint())
	}

	exp, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	), nil
}
