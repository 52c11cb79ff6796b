package api_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/analytics"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
	"github.com/warp/attendance-engine/store/memory"
)

func newTestMonitor(t *testing.T) (*api.Monitor, *memory.Store) {
	t.Helper()

	store := memory.New()
	settings := schedule.DefaultSettings()
	settings.Timezone = "UTC"
	// Schedule start at midnight so the absence poll is never suppressed,
	// whatever wall clock the test runs at.
	settings.WorkingHours.Start = "00:00"
	holder := schedule.NewHolder(settings)

	directory := identity.NewDirectory(store, holder.Now)
	workflow := leave.NewWorkflow(store, holder.Now)
	engine := analytics.NewEngine(store, directory, workflow)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewMonitor(engine, holder, api.NewMetrics(), log), store
}

func TestMonitor_StartStopIdempotent(t *testing.T) {
	m, _ := newTestMonitor(t)

	m.Start()
	m.Start() // second start is a no-op
	m.Stop()
	m.Stop() // second stop is a no-op
}

func TestMonitor_RestartAfterStop(t *testing.T) {
	// A stopped monitor must come back up: each Start/Stop cycle gets its
	// own stop channel, so the restarted loop keeps running and the second
	// Stop shuts it down cleanly.
	m, _ := newTestMonitor(t)

	m.Start()
	m.Stop()
	m.Start()
	m.Stop()
}

func TestMonitor_RunNowCompletes(t *testing.T) {
	// GIVEN: A directory with one identity and no check-ins today
	m, store := newTestMonitor(t)
	directory := identity.NewDirectory(store, time.Now)
	hash, err := identity.HashSecret("x")
	require.NoError(t, err)
	answer, err := identity.HashSecurityAnswer("a")
	require.NoError(t, err)
	_, err = directory.Register(context.Background(), identity.Registration{
		Name:               "Rana Ahmed",
		Department:         "IT",
		CredentialHash:     hash,
		SecurityQuestionID: "pet",
		SecurityAnswerHash: answer,
	})
	require.NoError(t, err)

	// WHEN: An immediate poll and sweep runs
	m.RunNow()

	// THEN: It returns without blocking; the absent identity was visible
	missing, err := analytics.NewEngine(store, directory, leave.NewWorkflow(store, time.Now)).
		MissingToday(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}
