// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	_ "embed"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type OTLPTracerConfig struct {
	Protocol  string       `json:"protocol"`
	ServerURL string       `json:"server_url"`
	Insecure  bool         `json:"insecure"`
	Sampling  OTLPSampling `json:"sampling"`
}

type OTLPSampling struct {
	SamplingRatio float64 `json:"sampling_ratio"`
}

type StdoutConfig struct {
	Pretty bool `json:"pretty"`
}

type TracerProvidersConfig struct {
	OTLP   OTLPTracerConfig `json:"otlp"`
	Stdout StdoutConfig     `json:"stdout"`
}

type TracerConfig struct {
	ServiceName string                `json:"service_name"`
	Name        string                `json:"name"`
	Provider    string                `json:"provider"`
	Propagators []string              `json:"propagators"`
	Providers   TracerProvidersConfig `json:"providers"`

	ResourceAttributes []attribute.KeyValue `json:"-"`
}

type OTLPMeterConfig struct {
	Protocol  string        `json:"protocol"`
	ServerURL string        `json:"server_url"`
	Insecure  bool          `json:"insecure"`
	Interval  time.Duration `json:"interval"`
}

type MeterProvidersConfig struct {
	OTLP   OTLPMeterConfig `json:"otlp"`
	Stdout StdoutConfig    `json:"stdout"`
}

type MeterConfig struct {
	ServiceName string               `json:"service_name"`
	Name        string               `json:"name"`
	Provider    string               `json:"provider"`
	Providers   MeterProvidersConfig `json:"providers"`

	ResourceAttributes []attribute.KeyValue `json:"-"`
}

//go:embed tracer.schema.json
var TracerConfigSchema string

const TracerConfigSchemaID = "clinia://tracer-config"

//go:embed meter.schema.json
var MeterConfigSchema string

const MeterConfigSchemaID = "clinia://meter-config"
