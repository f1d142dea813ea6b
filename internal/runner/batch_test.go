package runner

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"stubrunner/internal/api"
	"stubrunner/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPortFree(t *testing.T, port int) {
	t.Helper()
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err, "port %d should be free", port)
	l.Close()
}

func TestBatch_BillingAndLedger(t *testing.T) {
	srv, err := registry.StartEmbedded("127.0.0.1", 0)
	require.NoError(t, err)
	defer srv.Close()
	reg := registry.NewRedisRegistry(srv.Addr(), "", 0, "com/example")
	defer reg.Close()

	root := stubsRoot(t, "billing-stubs", "ledger-stubs")
	env := newEnv(t, 20000, 20010, reg)
	batch := Build(deps("billing", "ledger"), baseArgs(root, 20000, 20010), env)
	ctx := context.Background()

	report := batch.RunAll(ctx)
	require.NoError(t, report.Err())
	require.Len(t, report.Started, 2)

	ports := map[int]bool{}
	for _, c := range report.Started {
		assert.GreaterOrEqual(t, c.Port, 20000)
		assert.LessOrEqual(t, c.Port, 20010)
		ports[c.Port] = true

		found, err := reg.Lookup(ctx, c.Alias)
		require.NoError(t, err)
		assert.Equal(t, c.Port, found.Port)
	}
	assert.Len(t, ports, 2, "ports must be distinct")
	assert.ElementsMatch(t, report.Started, batch.Running())

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, batch.WaitForReady(waitCtx))

	closeReport := batch.CloseAll(ctx)
	require.NoError(t, closeReport.Err())

	regs, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)
	assert.Empty(t, env.Allocator.Reserved())
	for port := range ports {
		assertPortFree(t, port)
	}
	assert.Empty(t, batch.Running())
}

func TestBatch_DistinctPortsInRange(t *testing.T) {
	for count := 1; count <= 5; count++ {
		t.Run(fmt.Sprintf("%d collaborators", count), func(t *testing.T) {
			var aliases []string
			var paths []string
			for i := 0; i < count; i++ {
				aliases = append(aliases, fmt.Sprintf("svc%d", i))
				paths = append(paths, fmt.Sprintf("svc%d-stubs", i))
			}
			root := stubsRoot(t, paths...)
			env := newEnv(t, 21100, 21104, newMemRegistry())
			batch := Build(deps(aliases...), baseArgs(root, 21100, 21104), env)
			ctx := context.Background()

			report := batch.RunAll(ctx)
			defer batch.CloseAll(ctx)

			require.NoError(t, report.Err())
			seen := map[int]bool{}
			for _, c := range report.Started {
				assert.True(t, c.Port >= 21100 && c.Port <= 21104)
				assert.False(t, seen[c.Port])
				seen[c.Port] = true
			}
			assert.Len(t, seen, count)
		})
	}
}

func TestBatch_ExhaustionContained(t *testing.T) {
	root := stubsRoot(t, "a-stubs", "b-stubs", "c-stubs")
	reg := newMemRegistry()
	env := newEnv(t, 21200, 21201, reg)
	batch := Build(deps("a", "b", "c"), baseArgs(root, 21200, 21201), env)
	ctx := context.Background()

	report := batch.RunAll(ctx)
	require.Len(t, report.Started, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "c", report.Failures[0].Alias)
	assert.Equal(t, "port-exhausted", report.Failures[0].Kind())
	assert.True(t, api.IsPortExhausted(report.Err()))
	assert.True(t, report.Failed("c"))
	assert.False(t, report.Failed("a"))

	closeReport := batch.CloseAll(ctx)
	assert.False(t, closeReport.HasFailures())
	assert.Equal(t, 0, reg.count())
	assert.Empty(t, env.Allocator.Reserved())
}

func TestBatch_StartedButUnregistered(t *testing.T) {
	root := stubsRoot(t, "billing-stubs", "ledger-stubs")
	reg := newMemRegistry()
	reg.failRegister["ledger"] = true
	env := newEnv(t, 21300, 21310, reg)
	batch := Build(deps("billing", "ledger"), baseArgs(root, 21300, 21310), env)
	ctx := context.Background()

	report := batch.RunAll(ctx)
	defer batch.CloseAll(ctx)

	require.Len(t, report.Started, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "registration", report.Failures[0].Kind())

	ledger, ok := batch.Lookup("ledger")
	require.True(t, ok)
	assert.False(t, ledger.Registered)

	billing, ok := batch.Lookup("billing")
	require.True(t, ok)
	assert.True(t, billing.Registered)
}

func TestBatch_CloseAllRemovesEntryOfFailedRegistration(t *testing.T) {
	root := stubsRoot(t, "billing-stubs", "ledger-stubs")
	reg := newMemRegistry()
	reg.lossyRegister["ledger"] = true
	env := newEnv(t, 21700, 21710, reg)
	batch := Build(deps("billing", "ledger"), baseArgs(root, 21700, 21710), env)
	ctx := context.Background()

	report := batch.RunAll(ctx)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "registration", report.Failures[0].Kind())
	assert.Equal(t, 2, reg.count(), "the failed registration still wrote its entry")

	closeReport := batch.CloseAll(ctx)
	assert.False(t, closeReport.HasFailures())
	assert.Equal(t, 0, reg.count())
}

func TestBatch_SecondCallsAreNoOps(t *testing.T) {
	root := stubsRoot(t, "billing-stubs")
	env := newEnv(t, 21400, 21401, newMemRegistry())
	batch := Build(deps("billing"), baseArgs(root, 21400, 21401), env)
	ctx := context.Background()

	require.Len(t, batch.RunAll(ctx).Started, 1)
	second := batch.RunAll(ctx)
	assert.Empty(t, second.Started)
	assert.Empty(t, second.Failures)

	assert.False(t, batch.CloseAll(ctx).HasFailures())
	assert.False(t, batch.CloseAll(ctx).HasFailures())
	assert.Empty(t, batch.RunAll(ctx).Started, "a closed batch does not start again")
}

func TestBatch_CloseAllAttemptsEveryRunner(t *testing.T) {
	root := stubsRoot(t, "a-stubs", "b-stubs")
	reg := newMemRegistry()
	env := newEnv(t, 21500, 21510, reg)
	batch := Build(deps("a", "b"), baseArgs(root, 21500, 21510), env)
	ctx := context.Background()

	report := batch.RunAll(ctx)
	require.Len(t, report.Started, 2)

	reg.failDeregister = true
	closeReport := batch.CloseAll(ctx)
	assert.Len(t, closeReport.Failures, 2)
	for _, c := range report.Started {
		assertPortFree(t, c.Port)
	}
	for _, r := range batch.Runners() {
		assert.Equal(t, StateStopped, r.State())
	}
}

func TestBatch_CloseAllWithoutRun(t *testing.T) {
	env := newEnv(t, 21600, 21601, newMemRegistry())
	batch := Build(deps("a"), baseArgs(t.TempDir(), 21600, 21601), env)
	assert.False(t, batch.CloseAll(context.Background()).HasFailures())
}

func TestReport_NilSafe(t *testing.T) {
	var r *Report
	assert.False(t, r.HasFailures())
	assert.NoError(t, r.Err())
	assert.False(t, r.Failed("x"))
}
