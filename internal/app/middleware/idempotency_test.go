package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stayhub/internal/app/commands"
)

type recordedResult struct {
	Value string `json:"value"`
}

type testCommand struct {
	key    string
	idKey  string
	result *recordedResult
	err    error
}

func (c testCommand) Key() string            { return c.key }
func (c testCommand) IdempotencyKey() string { return c.idKey }
func (c testCommand) ResultPrototype() any   { return &recordedResult{} }

type mapStore struct {
	items map[string]IdempotencyRecord
}

func newMapStore() *mapStore {
	return &mapStore{items: make(map[string]IdempotencyRecord)}
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

type countingBus struct {
	calls int
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	tc := cmd.(testCommand)
	if tc.err != nil {
		return nil, tc.err
	}
	return tc.result, nil
}

func TestIdempotencyReplaysRecordedResult(t *testing.T) {
	store := newMapStore()
	inner := &countingBus{}
	bus := ChainCommands(inner, Idempotency(store, nil))

	cmd := testCommand{key: "test.cmd", idKey: "idem-1", result: &recordedResult{Value: "charged"}}

	first, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, &recordedResult{Value: "charged"}, first)

	second, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, &recordedResult{Value: "charged"}, second)

	require.Equal(t, 1, inner.calls, "a retried key must not reach the handler again")
}

func TestIdempotencyReplaysRecordedError(t *testing.T) {
	store := newMapStore()
	inner := &countingBus{}
	bus := ChainCommands(inner, Idempotency(store, nil))

	cmd := testCommand{key: "test.cmd", idKey: "idem-2", err: errors.New("declined")}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "declined")

	_, err = bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "declined")
	require.Equal(t, 1, inner.calls)
}

type classifiedFailure struct {
	kind    string
	message string
}

func (e *classifiedFailure) Error() string     { return e.message }
func (e *classifiedFailure) ErrorKind() string { return e.kind }

func TestIdempotencyPreservesErrorKindOnReplay(t *testing.T) {
	store := newMapStore()
	inner := &countingBus{}
	bus := ChainCommands(inner, Idempotency(store, nil))

	cmd := testCommand{
		key:   "test.cmd",
		idKey: "idem-3",
		err:   &classifiedFailure{kind: "CONFLICT", message: "dates overlap"},
	}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "dates overlap")

	_, err = bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "dates overlap")
	var replayed *ReplayedError
	require.ErrorAs(t, err, &replayed)
	require.Equal(t, "CONFLICT", replayed.Kind)
	require.Equal(t, 1, inner.calls)
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	store := newMapStore()
	inner := &countingBus{}
	bus := ChainCommands(inner, Idempotency(store, nil))

	cmd := testCommand{key: "test.cmd", result: &recordedResult{Value: "a"}}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}
