package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name     string
	startErr error
	events   *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return nil
}

func TestManager_StartStopOrder(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeService{name: "a", events: &events})
	m.Register(&fakeService{name: "b", events: &events})

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	m.Stop(ctx)

	require.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}

func TestManager_StartFailureUnwinds(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeService{name: "a", events: &events})
	m.Register(&fakeService{name: "b", startErr: errors.New("boom"), events: &events})
	m.Register(&fakeService{name: "c", events: &events})

	err := m.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"start:a", "start:b", "stop:a"}, events, "c never starts, a is unwound")
}

func TestManager_StopIdempotent(t *testing.T) {
	var events []string
	m := NewManager(nil)
	m.Register(&fakeService{name: "a", events: &events})

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	m.Stop(ctx)
	m.Stop(ctx)
	require.Equal(t, []string{"start:a", "stop:a"}, events)
}
