package registry

import (
	"encoding/json"
	"testing"

	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCanceled, 2, func(payload json.RawMessage) (any, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	output, err := reg.Decode(enums.EventOrderCanceled, 2, json.RawMessage(`{"reason":"changed mind"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["reason"] != "changed mind" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventOrderCanceled, 1, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected missing decoder error")
	}
}

func TestOrderDecoderRegistry(t *testing.T) {
	reg := NewOrderDecoderRegistry()

	out, err := reg.Decode(enums.EventOrderStatusChanged, 1, json.RawMessage(`{"status":"delivered","previous_status":"shipped"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	event, ok := out.(*payloads.OrderStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected type %T", out)
	}
	if event.Status != enums.OrderStatusDelivered || event.PreviousStatus != enums.OrderStatusShipped {
		t.Fatalf("unexpected payload %+v", event)
	}

	if _, err := reg.Decode(enums.EventOrderPaid, 1, json.RawMessage(`{"amount":[]}`)); err == nil {
		t.Fatal("expected decode error for malformed amount")
	}
}
