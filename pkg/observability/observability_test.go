package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "dropforge", config.ServiceName)
	require.Equal(t, "development", config.Environment)
	require.Equal(t, "localhost:4317", config.OTLPEndpoint)
	require.Equal(t, 1.0, config.SampleRate)
	require.True(t, config.Enabled)
	require.False(t, config.Insecure)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	// Should not fail even when disabled
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())
}

func TestTrackMint(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	attrs := MintOperation("inst-1", 0, "purchase", 2)
	newCtx, finish := p.TrackMint(context.Background(), "mint.public", 2, attrs...)
	require.NotNil(t, newCtx)

	time.Sleep(1 * time.Millisecond)
	finish(nil)
}

func TestTrackMintWithError(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	_, finish := p.TrackMint(context.Background(), "mint.presale", 1)
	finish(errors.New("sold out"))
	// Should not panic
}

func TestRecordMetricsDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	// These should not panic when provider is disabled
	p.RecordMint(ctx, 3, attribute.String("test", "value"))
	p.RecordRejection(ctx, errors.New("test"), attribute.String("test", "value"))
	p.RecordDuration(ctx, 100*time.Millisecond, attribute.String("test", "value"))
	p.RecordSettled(ctx, 110, attribute.String("test", "value"))
}

func TestStartSpan(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	newCtx, span := p.StartSpan(context.Background(), "test.span")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestShutdown(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestMintOperation(t *testing.T) {
	attrs := MintOperation("inst-1", 2, "purchase", 5)
	require.Len(t, attrs, 4)
	require.Equal(t, "dropforge.instance.id", string(attrs[0].Key))
	require.Equal(t, "inst-1", attrs[0].Value.AsString())
	require.Equal(t, int64(2), attrs[1].Value.AsInt64())
}

func TestSettlementOperation(t *testing.T) {
	attrs := SettlementOperation("inst-1", 110, 10, 100)
	require.Len(t, attrs, 4)
	require.Equal(t, "dropforge.settle.platform_minor", string(attrs[2].Key))
	require.Equal(t, int64(10), attrs[2].Value.AsInt64())
}

func TestRejectionOperation(t *testing.T) {
	attrs := RejectionOperation("inst-1", "supply", "sold_out")
	require.Len(t, attrs, 3)
	require.Equal(t, "dropforge.fail.code", string(attrs[2].Key))
	require.Equal(t, "sold_out", attrs[2].Value.AsString())
}

func TestAdminOperation(t *testing.T) {
	attrs := AdminOperation("inst-1", "reduce_supply", "owner")
	require.Len(t, attrs, 3)
	require.Equal(t, "reduce_supply", attrs[1].Value.AsString())
}

func TestSpanHelpers(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, SpanFromContext(ctx)) // Returns a no-op span if none

	// Should not panic
	AddSpanEvent(ctx, "test.event", attribute.String("key", "value"))
	SetSpanStatus(ctx, errors.New("test error"))
	SetSpanStatus(ctx, nil)
}
