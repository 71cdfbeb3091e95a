package audit

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/fcglabs/authd/internal/correlation"
	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/logging"
)

// Handler subscribes to the authentication event kinds and projects each
// published event into a persisted Record. The append is awaited: a
// persistence failure propagates to the publisher.
type Handler struct {
	store  Store
	logger logging.Logger
}

// NewHandler builds a Handler writing to the given store.
func NewHandler(store Store, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{store: store, logger: logger}
}

// Bind subscribes the handler to every event kind it audits.
func (h *Handler) Bind(bus *events.Bus) {
	bus.Subscribe(events.KindRegistration, h.Handle)
	bus.Subscribe(events.KindLogin, h.Handle)
	bus.Subscribe(events.KindPasswordChange, h.Handle)
}

// Handle converts the event into an audit record and appends it.
func (h *Handler) Handle(ctx context.Context, event events.Event) error {
	var descricao string

	switch ev := event.(type) {
	case events.Registration:
		descricao = fmt.Sprintf(
			"Tentativa de registrar usuário com Nome: %s e Email: %s realizada com %s. Descricao: %s",
			ev.Nome, ev.Email, resultado(ev.Sucesso), ev.Descricao,
		)
	case events.Login:
		descricao = fmt.Sprintf(
			"Tentativa de login do usuário com Email: %s realizada com %s. Descricao: %s",
			ev.Email, resultado(ev.Sucesso), ev.Descricao,
		)
	case events.PasswordChange:
		descricao = fmt.Sprintf(
			"Tentativa de alterar senha do usuário com Email: %s realizada com %s. Descricao: %s",
			ev.Email, resultado(ev.Sucesso), ev.Descricao,
		)
	default:
		return goerrors.New("unhandled event kind", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"kind": string(event.EventKind())})
	}

	record := &Record{
		Nome:      string(event.EventKind()),
		Data:      event.OccurredAt(),
		Descricao: descricao,
	}

	if id, ok := correlation.FromContext(ctx); ok {
		record.CorrelationID = id
	}

	if _, err := h.store.Append(ctx, record); err != nil {
		h.logger.Error(ctx, "audit append failed", "event", string(event.EventKind()), "error", err)
		return err
	}

	h.logger.Debug(ctx, "audit record appended", "event", string(event.EventKind()), "id", record.ID)
	return nil
}

func resultado(sucesso bool) string {
	if sucesso {
		return "Sucesso"
	}
	return "Falha"
}
