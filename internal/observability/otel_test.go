package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/iris-triage/internal/config"
)

func keepOTelGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{Enabled: true, Insecure: insecure, Endpoint: "localhost:4317", ServiceName: name, SampleRatio: 1}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	keepOTelGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false, Endpoint: "ignored:4317"}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("SetupOTel disabled: nil shutdown=%t err=%v", shutdown == nil, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("disabled tracing must not replace the global provider")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	cases := []struct {
		name     string
		insecure bool
		cancel   bool
	}{
		{"insecure", true, false},
		{"tls", false, false},
		{"cancelled context", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepOTelGlobals(t)
			ctx, cancel := context.WithCancel(context.Background())
			if tc.cancel {
				cancel() // exporter connects lazily
			} else {
				defer cancel()
			}

			shutdown, err := SetupOTel(ctx, enabled("iris-triage", tc.insecure), "v1.0.0",
				AttrStorageBackend.String("sqlite"))
			if err != nil {
				t.Fatalf("SetupOTel: %v", err)
			}
			if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
				t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
			}

			sctx, span := otel.Tracer("triage-test").Start(context.Background(), "Process")
			carrier := propagation.MapCarrier{}
			otel.GetTextMapPropagator().Inject(sctx, carrier)
			span.End()
			if !strings.HasPrefix(carrier.Get("traceparent"), "00-") {
				t.Fatalf("traceparent not injected: %v", carrier)
			}

			dctx, dcancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
			defer dcancel()
			_ = shutdown(dctx)
		})
	}
}

func TestSetupOTel_SeamErrorsLeaveGlobalsIntact(t *testing.T) {
	cases := []struct {
		name  string
		patch func() func()
	}{
		{"exporter", func() func() {
			orig := newOTLPExporterFn
			newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
			return func() { newOTLPExporterFn = orig }
		}},
		{"resource", func() func() {
			orig := newServiceResourceFn
			newServiceResourceFn = func(context.Context, string, string, []attribute.KeyValue) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
			return func() { newServiceResourceFn = orig }
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepOTelGlobals(t)
			defer tc.patch()()

			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()
			if _, err := SetupOTel(context.Background(), enabled("iris-triage", true), "v0"); err == nil {
				t.Fatalf("expected error")
			}
			if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestServiceResource_IncludesDeploymentAttributes(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), "iris-triage", "v2", []attribute.KeyValue{
		AttrStorageBackend.String("redis"),
		AttrResponseMode.String("deterministic"),
	})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	set := res.Set()
	for key, want := range map[attribute.Key]string{
		"service.name":     "iris-triage",
		"service.version":  "v2",
		AttrStorageBackend: "redis",
		AttrResponseMode:   "deterministic",
	} {
		v, ok := set.Value(key)
		if !ok || v.AsString() != want {
			t.Fatalf("%s = %q (present=%v); want %q", key, v.AsString(), ok, want)
		}
	}
}

func TestSampler_Bounds(t *testing.T) {
	cases := map[float64]string{
		1:    "AlwaysOnSampler",
		2:    "AlwaysOnSampler",
		0:    "AlwaysOffSampler",
		-1:   "AlwaysOffSampler",
		0.25: "TraceIDRatioBased{0.25}",
	}
	for ratio, want := range cases {
		if got := sampler(ratio).Description(); !strings.Contains(got, want) {
			t.Fatalf("sampler(%v) = %q; want it to mention %q", ratio, got, want)
		}
	}
}
