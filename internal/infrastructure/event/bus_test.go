package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler blew up")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "ProductionOrder", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	confirmed := &recordingHandler{types: []string{"ProductionOrderConfirmed"}}
	completed := &recordingHandler{types: []string{"ProductionOrderCompleted"}}
	bus.Subscribe(confirmed)
	bus.Subscribe(completed)

	require.NoError(t, bus.Publish(context.Background(), testEvent("ProductionOrderConfirmed")))

	assert.Len(t, confirmed.received, 1)
	assert.Empty(t, completed.received, "handlers only see their subscribed types")
}

func TestInMemoryEventBus_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"ProductionOrderConfirmed"}, err: errors.New("storage down")}
	panicking := &recordingHandler{types: []string{"ProductionOrderConfirmed"}, panics: true}
	healthy := &recordingHandler{types: []string{"ProductionOrderConfirmed"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), testEvent("ProductionOrderConfirmed")))

	assert.Len(t, healthy.received, 1, "delivery continues past failing handlers")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"ProductionOrderConfirmed"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), testEvent("ProductionOrderConfirmed")))
	assert.Empty(t, handler.received)
}
