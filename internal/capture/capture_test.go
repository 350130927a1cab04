package capture

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nextstep/internal/assessment"
)

const wait = 2 * time.Second

func strPtr(s string) *string { return &s }

func testQuestion() *assessment.Question {
	return &assessment.Question{ID: "q7", Ordinal: 7}
}

func testTemplate() assessment.Response {
	return assessment.Response{CandidateID: "cand", SubTest: assessment.SubTestGapAnalysis, Attempt: 2}
}

func TestCapture_ForcedAtDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := make(chan assessment.Response, 1)

	c := Start(clock, testTemplate(), testQuestion(), Options{
		Budget:   10 * time.Second,
		OnExpire: func(r assessment.Response) { expired <- r },
	})

	clock.Advance(10 * time.Second)

	select {
	case r := <-expired:
		assert.True(t, r.Forced)
		assert.Nil(t, r.Value)
		assert.Equal(t, "q7", r.QuestionID)
		assert.Equal(t, 7, r.Ordinal)
		assert.Equal(t, 2, r.Attempt)
	case <-time.After(wait):
		t.Fatal("expected forced response at deadline")
	}
	assert.True(t, c.Sealed())

	_, err := c.Submit(strPtr("late"))
	assert.ErrorIs(t, err, assessment.ErrDuplicateResponse)
}

func TestCapture_TicksBeforeDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan time.Duration, 16)
	expired := make(chan assessment.Response, 1)

	c := Start(clock, testTemplate(), testQuestion(), Options{
		Budget:   10 * time.Second,
		OnTick:   func(d time.Duration) { ticks <- d },
		OnExpire: func(r assessment.Response) { expired <- r },
	})
	defer c.Cancel()

	clock.Advance(time.Second)
	select {
	case d := <-ticks:
		assert.Equal(t, 9*time.Second, d)
	case <-time.After(wait):
		t.Fatal("expected a tick")
	}
	assert.False(t, c.Sealed())
	assert.Len(t, expired, 0)
}

func TestCapture_SubmitThenExpire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := make(chan assessment.Response, 1)

	c := Start(clock, testTemplate(), testQuestion(), Options{
		Budget:   10 * time.Second,
		OnExpire: func(r assessment.Response) { expired <- r },
	})

	r, err := c.Submit(strPtr("B"))
	require.NoError(t, err)
	require.NotNil(t, r.Value)
	assert.Equal(t, "B", *r.Value)
	assert.False(t, r.Forced)

	select {
	case <-c.Done():
	case <-time.After(wait):
		t.Fatal("countdown did not stop after submit")
	}

	clock.Advance(time.Minute)
	assert.Len(t, expired, 0, "timer must not fire after submission")

	_, err = c.Submit(strPtr("C"))
	assert.ErrorIs(t, err, assessment.ErrDuplicateResponse)
}

func TestCapture_CancelStopsCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := make(chan assessment.Response, 1)

	c := Start(clock, testTemplate(), testQuestion(), Options{
		Budget:   10 * time.Second,
		OnExpire: func(r assessment.Response) { expired <- r },
	})
	c.Cancel()
	c.Cancel()

	select {
	case <-c.Done():
	case <-time.After(wait):
		t.Fatal("countdown did not stop after cancel")
	}
	clock.Advance(time.Minute)
	assert.Len(t, expired, 0)

	_, err := c.Submit(strPtr("A"))
	assert.ErrorIs(t, err, assessment.ErrDuplicateResponse)
}

func TestCapture_Untimed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := Start(clock, testTemplate(), testQuestion(), Options{})

	assert.Zero(t, c.Remaining())

	r, err := c.Submit(strPtr("print(1)"))
	require.NoError(t, err)
	assert.Equal(t, "print(1)", *r.Value)
}

func TestCapture_RaceYieldsOneResponse(t *testing.T) {
	for i := 0; i < 50; i++ {
		clock := clockwork.NewFakeClock()
		expired := make(chan assessment.Response, 1)

		c := Start(clock, testTemplate(), testQuestion(), Options{
			Budget:   time.Second,
			OnExpire: func(r assessment.Response) { expired <- r },
		})

		submitted := make(chan error, 1)
		go func() {
			_, err := c.Submit(strPtr("A"))
			submitted <- err
		}()
		clock.Advance(time.Second)

		err := <-submitted
		<-c.Done()

		produced := len(expired)
		if err == nil {
			produced++
		}
		assert.Equal(t, 1, produced, "iteration %d", i)
	}
}
