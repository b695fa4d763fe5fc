// Mint-specific instrumentation helpers.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Semantic convention attributes for the mint pipeline.
var (
	// Instance attributes
	AttrInstanceID = attribute.Key("dropforge.instance.id")
	AttrCreator    = attribute.Key("dropforge.instance.creator")

	// Mint attributes
	AttrPhaseID   = attribute.Key("dropforge.mint.phase_id")
	AttrMintKind  = attribute.Key("dropforge.mint.kind")
	AttrMintUnits = attribute.Key("dropforge.mint.units")
	AttrRecipient = attribute.Key("dropforge.mint.recipient")

	// Settlement attributes
	AttrRequiredMinor = attribute.Key("dropforge.settle.required_minor")
	AttrPlatformMinor = attribute.Key("dropforge.settle.platform_minor")
	AttrCreatorMinor  = attribute.Key("dropforge.settle.creator_minor")

	// Rejection attributes
	AttrFailCategory = attribute.Key("dropforge.fail.category")
	AttrFailCode     = attribute.Key("dropforge.fail.code")

	// Admin attributes
	AttrAdminAction = attribute.Key("dropforge.admin.action")
	AttrAdminRole   = attribute.Key("dropforge.admin.role")
)

// MintOperation creates attributes for a mint request.
func MintOperation(instanceID string, phaseID int, kind string, units int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInstanceID.String(instanceID),
		AttrPhaseID.Int(phaseID),
		AttrMintKind.String(kind),
		AttrMintUnits.Int64(units),
	}
}

// SettlementOperation creates attributes for a completed settlement.
func SettlementOperation(instanceID string, required, platform, creator int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInstanceID.String(instanceID),
		AttrRequiredMinor.Int64(required),
		AttrPlatformMinor.Int64(platform),
		AttrCreatorMinor.Int64(creator),
	}
}

// RejectionOperation creates attributes for a rejected request.
func RejectionOperation(instanceID, category, code string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInstanceID.String(instanceID),
		AttrFailCategory.String(category),
		AttrFailCode.String(code),
	}
}

// AdminOperation creates attributes for a capability-gated admin call.
func AdminOperation(instanceID, action, role string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInstanceID.String(instanceID),
		AttrAdminAction.String(action),
		AttrAdminRole.String(role),
	}
}

// SpanFromContext extracts the span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus sets the span status based on error.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
}
