package audit_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcglabs/authd/internal/audit"
	"github.com/fcglabs/authd/internal/correlation"
	"github.com/fcglabs/authd/internal/events"
)

type fakeStore struct {
	records []*audit.Record
	err     error
}

func (s *fakeStore) Append(ctx context.Context, record *audit.Record) (*audit.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	record.ID = int64(len(s.records) + 1)
	s.records = append(s.records, record)
	return record, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]*audit.Record, error) {
	return s.records, nil
}

func TestHandleRegistrationSuccess(t *testing.T) {
	store := &fakeStore{}
	handler := audit.NewHandler(store, nil)

	ev := events.NewRegistration("joaosilva1@x.com", "Joao Silva", "Usuário Criado com sucesso", true)
	require.NoError(t, handler.Handle(context.Background(), ev))

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, string(events.KindRegistration), rec.Nome)
	assert.Equal(t, ev.Timestamp, rec.Data)
	assert.Contains(t, rec.Descricao, "Joao Silva")
	assert.Contains(t, rec.Descricao, "joaosilva1@x.com")
	assert.Contains(t, rec.Descricao, "Sucesso")
	assert.Contains(t, rec.Descricao, "Usuário Criado com sucesso")
}

func TestHandleLoginFailure(t *testing.T) {
	store := &fakeStore{}
	handler := audit.NewHandler(store, nil)

	ev := events.NewLogin("joaosilva1@x.com", "Usuário ou senha inválidos.", false)
	require.NoError(t, handler.Handle(context.Background(), ev))

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, string(events.KindLogin), rec.Nome)
	assert.Contains(t, rec.Descricao, "Falha")
	assert.Contains(t, rec.Descricao, "Usuário ou senha inválidos.")
}

func TestHandlePasswordChange(t *testing.T) {
	store := &fakeStore{}
	handler := audit.NewHandler(store, nil)

	ev := events.NewPasswordChange("joaosilva1@x.com", "Senha alterada com sucesso!", true)
	require.NoError(t, handler.Handle(context.Background(), ev))

	require.Len(t, store.records, 1)
	assert.Equal(t, string(events.KindPasswordChange), store.records[0].Nome)
}

func TestHandleCapturesCorrelationID(t *testing.T) {
	store := &fakeStore{}
	handler := audit.NewHandler(store, nil)

	ctx := correlation.WithID(context.Background(), "abc-123")
	require.NoError(t, handler.Handle(ctx, events.NewLogin("a@b.com", "x", true)))

	require.Len(t, store.records, 1)
	assert.Equal(t, "abc-123", store.records[0].CorrelationID)
}

func TestHandlePropagatesStoreFailure(t *testing.T) {
	boom := goerrors.New("disk full", goerrors.CategoryInternal)
	handler := audit.NewHandler(&fakeStore{err: boom}, nil)

	err := handler.Handle(context.Background(), events.NewLogin("a@b.com", "x", true))
	assert.ErrorIs(t, err, boom)
}

func TestBindSubscribesAllKinds(t *testing.T) {
	store := &fakeStore{}
	handler := audit.NewHandler(store, nil)

	bus := events.NewBus()
	handler.Bind(bus)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, events.NewRegistration("a@b.com", "A", "x", true)))
	require.NoError(t, bus.Publish(ctx, events.NewLogin("a@b.com", "x", false)))
	require.NoError(t, bus.Publish(ctx, events.NewPasswordChange("a@b.com", "x", true)))

	assert.Len(t, store.records, 3)
}
