package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-collection-backend/internal/apperr"
)

type stubNotifier struct {
	runs    int
	blockOn chan struct{}
	panics  bool
}

func (s *stubNotifier) NotifyTodaysSchedules(ctx context.Context) int {
	s.runs++
	if s.panics {
		panic("boom")
	}
	if s.blockOn != nil {
		select {
		case <-s.blockOn:
		case <-ctx.Done():
		}
	}
	return s.runs
}

func TestCronSpec(t *testing.T) {
	spec, err := CronSpec("06:30")
	require.NoError(t, err)
	assert.Equal(t, "30 6 * * *", spec)

	spec, err = CronSpec("17:00")
	require.NoError(t, err)
	assert.Equal(t, "0 17 * * *", spec)

	_, err = CronSpec("sunrise")
	assert.ErrorIs(t, err, apperr.ErrMalformedRecurrenceRule)
}

func TestRegister(t *testing.T) {
	c := cron.New()
	job := NewJob(&stubNotifier{}, time.Minute, zerolog.Nop())

	require.NoError(t, Register(c, []string{"06:30", "17:00"}, job))
	assert.Len(t, c.Entries(), 2)

	assert.Error(t, Register(cron.New(), []string{"25:99"}, job))
}

func TestRun_Invokes(t *testing.T) {
	notifier := &stubNotifier{}
	job := NewJob(notifier, time.Minute, zerolog.Nop())

	job.Run()
	job.Run()
	assert.Equal(t, 2, notifier.runs)
}

func TestRun_RecoversFromPanic(t *testing.T) {
	job := NewJob(&stubNotifier{panics: true}, time.Minute, zerolog.Nop())

	assert.NotPanics(t, job.Run)
}

func TestRun_AbortsOnBudget(t *testing.T) {
	notifier := &stubNotifier{blockOn: make(chan struct{})}
	job := NewJob(notifier, 20*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder run did not respect its time budget")
	}
}
