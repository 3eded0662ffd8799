package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lunch-cli/pkg/github"
)

type fakeDispatcher struct {
	err   error
	calls int
}

func (f *fakeDispatcher) Dispatch(context.Context) error {
	f.calls++
	return f.err
}

func (f *fakeDispatcher) Message() string { return "started" }

type fakeGitHub struct {
	got github.DispatchRequest
	err error
}

func (f *fakeGitHub) DispatchWorkflow(_ context.Context, req github.DispatchRequest) error {
	f.got = req
	return f.err
}

func newTrigger(d Dispatcher) (*Trigger, *time.Time) {
	now := t0
	tr := New(NewMemoryGate(10*time.Minute), d, 10*time.Minute, WithClock(func() time.Time { return now }))
	return tr, &now
}

func TestFire_CooldownCycle(t *testing.T) {
	ctx := context.Background()
	d := &fakeDispatcher{}
	tr, now := newTrigger(d)

	res, err := tr.Fire(ctx)
	require.NoError(t, err)
	assert.Equal(t, "started", res.Message)
	assert.Equal(t, t0, res.StartedAt)

	*now = t0.Add(90 * time.Second)
	_, err = tr.Fire(ctx)
	require.Error(t, err)
	var cd *CooldownError
	require.True(t, errors.As(err, &cd))
	assert.True(t, errors.Is(err, ErrCooldown))
	assert.Equal(t, 9, RemainingMinutes(cd.Remaining))
	assert.Equal(t, "Can't refresh more often than every 10 minutes. Please wait 9 more minutes.", err.Error())

	*now = t0.Add(10 * time.Minute)
	_, err = tr.Fire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.calls)
}

func TestFire_DispatchFailureReleasesSlot(t *testing.T) {
	ctx := context.Background()
	d := &fakeDispatcher{err: errors.New("github: status 502")}
	tr, _ := newTrigger(d)

	_, err := tr.Fire(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDispatch))

	d.err = nil
	_, err = tr.Fire(ctx)
	assert.NoError(t, err, "failed dispatch does not start the cooldown")
}

func TestFire_NotConfigured(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTrigger(nil)

	_, err := tr.Fire(ctx)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = tr.Fire(ctx)
	assert.True(t, errors.Is(err, ErrNotConfigured), "not a cooldown rejection")
}

func TestRemainingMinutes(t *testing.T) {
	assert.Equal(t, 0, RemainingMinutes(0))
	assert.Equal(t, 1, RemainingMinutes(time.Second))
	assert.Equal(t, 1, RemainingMinutes(time.Minute))
	assert.Equal(t, 2, RemainingMinutes(time.Minute+time.Millisecond))
	assert.Equal(t, 10, RemainingMinutes(10*time.Minute))
}

func TestCooldownMessage_Singular(t *testing.T) {
	assert.Equal(t,
		"Can't refresh more often than every 10 minutes. Please wait 1 more minute.",
		CooldownMessage(10*time.Minute, 30*time.Second))
}

func TestWorkflowDispatcher_DefaultsInputs(t *testing.T) {
	gh := &fakeGitHub{}
	d := &WorkflowDispatcher{Client: gh, Request: github.DispatchRequest{
		Owner: "stechermichal", Repo: "scrapetizer", Workflow: "manual-scrape.yml", Ref: "master",
	}}
	require.NoError(t, d.Dispatch(context.Background()))
	assert.Equal(t, map[string]string{"restaurant": ""}, gh.got.Inputs)
	assert.Equal(t, "Scraping started. This might take up to 4 minutes.", d.Message())
}

func TestSimulatedDispatcher(t *testing.T) {
	var d SimulatedDispatcher
	assert.NoError(t, d.Dispatch(context.Background()))
	assert.Contains(t, d.Message(), "simulated in development")
}
