package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewTraceClient(t *testing.T) {
	tests := []struct {
		name         string
		protocol     string
		endpoint     string
		wantEndpoint string
		wantErr      bool
	}{
		{name: "grpc default", protocol: "grpc", wantEndpoint: "localhost:4317"},
		{name: "http default", protocol: "http", wantEndpoint: "localhost:4318"},
		{name: "explicit endpoint", protocol: "http", endpoint: "collector:4318", wantEndpoint: "collector:4318"},
		{name: "unknown protocol", protocol: "udp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, endpoint, err := newTraceClient(tt.protocol, tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Fatal("newTraceClient() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newTraceClient() error = %v", err)
			}
			if client == nil {
				t.Fatal("newTraceClient() returned nil client")
			}
			if endpoint != tt.wantEndpoint {
				t.Errorf("endpoint = %q, want %q", endpoint, tt.wantEndpoint)
			}
		})
	}
}

func TestInitTracerDisabledInstallsNoop(t *testing.T) {
	saved := otel.GetTracerProvider()
	defer otel.SetTracerProvider(saved)

	shutdown, err := InitTracer(TracerConfig{ServiceName: "logtailn", Enabled: false})
	if err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
		t.Errorf("provider = %T, want noop.TracerProvider", otel.GetTracerProvider())
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInitTracerRejectsUnknownProtocol(t *testing.T) {
	if _, err := InitTracer(TracerConfig{ServiceName: "logtailn", Protocol: "udp", Enabled: true}); err == nil {
		t.Fatal("InitTracer() succeeded, want error")
	}
}
