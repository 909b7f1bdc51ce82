package config

import (
	"os"
	"strings"
)

// TracingConfig mirrors the standard OTEL_* variables used by the tracer.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	Version      string
	Endpoint     string            // OTEL_EXPORTER_OTLP_ENDPOINT; stdout exporter when empty
	Insecure     bool              // OTEL_EXPORTER_OTLP_INSECURE
	Headers      map[string]string // OTEL_EXPORTER_OTLP_HEADERS, "k=v,k2=v2"
	SamplerRatio float64           // OTEL_SAMPLER_RATIO in [0,1]
}

func LoadTracingConfig(env string) TracingConfig {
	ratio := envFloat("OTEL_SAMPLER_RATIO", 0.1)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return TracingConfig{
		Enabled:      envBool("OTEL_ENABLED", false),
		ServiceName:  getenv("OTEL_SERVICE_NAME", "menu-catalog"),
		Environment:  env,
		Version:      getenv("APP_VERSION", "dev"),
		Endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:     envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		Headers:      parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		SamplerRatio: ratio,
	}
}

func parseHeaders(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && strings.TrimSpace(k) != "" {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}
