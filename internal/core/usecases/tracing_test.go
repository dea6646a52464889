package usecases_test

import (
	"context"
	"os"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
	"github.com/samirrijal/meteomcp/internal/pkg/telemetry"
)

var spans = tracetest.NewSpanRecorder()

// The global provider binds package tracers once, so it is installed for
// the whole run.
func TestMain(m *testing.M) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	os.Exit(m.Run())
}

func endedSpan(t *testing.T, name, query string) map[attribute.Key]attribute.Value {
	t.Helper()
	for _, s := range spans.Ended() {
		if s.Name() != name {
			continue
		}
		attrs := make(map[attribute.Key]attribute.Value)
		for _, kv := range s.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if attrs[telemetry.AttrLocationQuery].AsString() == query {
			return attrs
		}
	}
	t.Fatalf("no %s span for %q", name, query)
	return nil
}

func TestGeocodingService_Resolve_RecordsSpan(t *testing.T) {
	svc := usecases.NewGeocodingService(springfieldProvider(), nil)
	if _, err := svc.Resolve(context.Background(), "Springfield, MO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attrs := endedSpan(t, "GeocodingService.Resolve", "Springfield, MO")
	if got := attrs[telemetry.AttrGeocodingRule].AsString(); got != string(domain.RuleUSState) {
		t.Errorf("expected rule %q, got %q", domain.RuleUSState, got)
	}
	if _, ok := attrs[telemetry.AttrCacheHit]; ok {
		t.Error("provider lookup marked as cache hit")
	}
}

func TestGeocodingService_Resolve_RecordsCacheHit(t *testing.T) {
	cache := newMockCache()
	cache.entries["Lyon, France"] = domain.LocationRecord{Name: "Lyon", Country: "France", Latitude: 45.76, Longitude: 4.83}
	svc := usecases.NewGeocodingService(&mockProvider{}, cache)
	if _, err := svc.Resolve(context.Background(), "Lyon, France"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attrs := endedSpan(t, "GeocodingService.Resolve", "Lyon, France")
	if !attrs[telemetry.AttrCacheHit].AsBool() {
		t.Error("expected cache hit attribute")
	}
}
