package node

import (
	"errors"
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDataDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "node-test-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

type fakeService struct {
	startErr error
	started  bool
	stopped  bool
	onStop   func()
}

func (s *fakeService) Start() error { s.started = true; return s.startErr }
func (s *fakeService) Stop() error {
	s.stopped = true
	if s.onStop != nil {
		s.onStop()
	}
	return nil
}

func TestStartPersistsPeerIDAcrossRestarts(t *testing.T) {
	dir := tempDataDir(t)

	n1 := New(Config{DataDir: dir, PoolCapacity: 1024, PoolSlots: 4})
	require.NoError(t, n1.Start())
	id1 := n1.PeerID()
	require.NoError(t, n1.Stop())

	n2 := New(Config{DataDir: dir, PoolCapacity: 1024, PoolSlots: 4})
	require.NoError(t, n2.Start())
	defer n2.Stop()
	assert.Equal(t, id1, n2.PeerID())
}

func TestEphemeralNodeMintsFreshPeerIDEachStart(t *testing.T) {
	n1 := New(Config{PoolCapacity: 1024, PoolSlots: 4})
	require.NoError(t, n1.Start())
	id1 := n1.PeerID()
	require.NoError(t, n1.Stop())

	n2 := New(Config{PoolCapacity: 1024, PoolSlots: 4})
	require.NoError(t, n2.Start())
	defer n2.Stop()
	assert.NotEqual(t, id1, n2.PeerID())
}

func TestServicesStartInOrderAndStopInReverse(t *testing.T) {
	dir := tempDataDir(t)
	n := New(Config{DataDir: dir, PoolCapacity: 1024, PoolSlots: 4})

	var order []string
	svcA := &fakeService{onStop: func() { order = append(order, "a-stop") }}
	svcB := &fakeService{onStop: func() { order = append(order, "b-stop") }}
	n.Register(func(ctx *ServiceContext) (Service, error) {
		order = append(order, "a-start")
		return svcA, nil
	})
	n.Register(func(ctx *ServiceContext) (Service, error) {
		order = append(order, "b-start")
		return svcB, nil
	})

	require.NoError(t, n.Start())
	assert.True(t, svcA.started)
	assert.True(t, svcB.started)
	assert.Equal(t, []string{"a-start", "b-start"}, order)

	require.NoError(t, n.Stop())
	assert.True(t, svcA.stopped)
	assert.True(t, svcB.stopped)
	assert.Equal(t, []string{"a-start", "b-start", "b-stop", "a-stop"}, order)
}

func TestStartRollsBackAlreadyStartedServicesOnFailure(t *testing.T) {
	dir := tempDataDir(t)
	n := New(Config{DataDir: dir, PoolCapacity: 1024, PoolSlots: 4})

	svcA := &fakeService{}
	n.Register(func(ctx *ServiceContext) (Service, error) { return svcA, nil })
	n.Register(func(ctx *ServiceContext) (Service, error) {
		return &fakeService{startErr: errors.New("boom")}, nil
	})

	err := n.Start()
	require.Error(t, err)
	assert.True(t, svcA.started)
	assert.True(t, svcA.stopped)
}

func TestServiceContextServiceLookupByType(t *testing.T) {
	svc := &fakeService{}
	ctx := &ServiceContext{services: map[reflect.Type]Service{
		reflect.TypeOf(svc): svc,
	}}

	var got *fakeService
	require.NoError(t, ctx.Service(&got))
	assert.Same(t, svc, got)
}

func TestServiceContextServiceLookupUnknownType(t *testing.T) {
	ctx := &ServiceContext{services: map[reflect.Type]Service{}}

	var got *fakeService
	assert.Equal(t, ErrServiceUnknown, ctx.Service(&got))
}

func TestResolvePathJoinsUnderDataDir(t *testing.T) {
	cfg := Config{DataDir: "/var/lib/bl"}
	assert.Equal(t, "/var/lib/bl/chunks", cfg.ResolvePath("chunks"))
	assert.Equal(t, "/abs/path", cfg.ResolvePath("/abs/path"))
}
