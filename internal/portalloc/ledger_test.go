package portalloc

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"launchdeck/internal/models"
	"launchdeck/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *store.SQLiteStore
	ledger *Ledger
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "ports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	opts.LockFile = filepath.Join(dir, "ports.lock")
	l, err := NewLedger(s, opts)
	require.NoError(t, err)
	return &fixture{store: s, ledger: l}
}

func (f *fixture) target(t *testing.T, name string) *models.Target {
	t.Helper()
	tg := &models.Target{Name: name, Path: "/srv/" + name + "/manage.py", Type: models.TypeWeb}
	require.NoError(t, f.store.CreateTarget(context.Background(), tg))
	return tg
}

func TestAllocateLowestAndExhaustion(t *testing.T) {
	f := newFixture(t, Options{Min: 9000, Max: 9002})
	ctx := context.Background()

	a, b, c, d := f.target(t, "a"), f.target(t, "b"), f.target(t, "c"), f.target(t, "d")
	for i, tg := range []*models.Target{a, b, c} {
		port, err := f.ledger.Allocate(ctx, tg)
		require.NoError(t, err)
		assert.Equal(t, 9000+i, port)
	}

	_, err := f.ledger.Allocate(ctx, d)
	assert.ErrorIs(t, err, models.ErrNoPortsAvailable)

	require.NoError(t, f.ledger.Release(ctx, a))
	port, err := f.ledger.Allocate(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, 9000, port)
}

func TestAllocateReturnsHeldPort(t *testing.T) {
	f := newFixture(t, Options{Min: 9000, Max: 9010})
	ctx := context.Background()
	tg := f.target(t, "a")

	first, err := f.ledger.Allocate(ctx, tg)
	require.NoError(t, err)
	second, err := f.ledger.Allocate(ctx, tg)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := f.ledger.InUse(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{Min: 9000, Max: 9010})
	ctx := context.Background()
	tg := f.target(t, "a")

	_, err := f.ledger.Allocate(ctx, tg)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Release(ctx, tg))
	require.NoError(t, f.ledger.Release(ctx, tg))
	assert.Zero(t, tg.Port)

	stored, err := f.store.GetTarget(ctx, tg.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Port)
}

func TestReservedPortsSkipped(t *testing.T) {
	f := newFixture(t, Options{Min: 7999, Max: 8001, Reserved: []int{5000, 8000, 8080}})
	ctx := context.Background()

	a, b, c := f.target(t, "a"), f.target(t, "b"), f.target(t, "c")
	pa, err := f.ledger.Allocate(ctx, a)
	require.NoError(t, err)
	pb, err := f.ledger.Allocate(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 7999, pa)
	assert.Equal(t, 8001, pb)

	_, err = f.ledger.Allocate(ctx, c)
	assert.ErrorIs(t, err, models.ErrNoPortsAvailable)
}

func TestConcurrentAllocationsAreUnique(t *testing.T) {
	f := newFixture(t, Options{Min: 9000, Max: 9999})
	ctx := context.Background()

	var targets []*models.Target
	for i := 0; i < 25; i++ {
		targets = append(targets, f.target(t, fmt.Sprintf("t%d", i)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(targets))
	for _, tg := range targets {
		wg.Add(1)
		go func(tg *models.Target) {
			defer wg.Done()
			if _, err := f.ledger.Allocate(ctx, tg); err != nil {
				errs <- err
			}
		}(tg)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[int]bool{}
	for _, tg := range targets {
		assert.GreaterOrEqual(t, tg.Port, 9000)
		assert.LessOrEqual(t, tg.Port, 9999)
		assert.False(t, seen[tg.Port], "port %d handed out twice", tg.Port)
		seen[tg.Port] = true
	}
}

func TestInvalidRange(t *testing.T) {
	_, err := NewLedger(nil, Options{Min: 10, Max: 5})
	assert.Error(t, err)
}

func TestSkipOccupiedPorts(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	f := newFixture(t, Options{Min: port, Max: port + 1, SkipOccupied: true})
	got, err := f.ledger.Allocate(context.Background(), f.target(t, "web"))
	if err != nil {
		// port+1 may belong to someone else on a busy host
		assert.ErrorIs(t, err, models.ErrNoPortsAvailable)
		return
	}
	assert.Equal(t, port+1, got)
}
