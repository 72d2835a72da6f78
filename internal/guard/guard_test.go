package guard

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type GuardTestSuite struct {
	suite.Suite
	guard *Guard
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardTestSuite))
}

func (s *GuardTestSuite) SetupTest() {
	s.guard = &Guard{}
}

func (s *GuardTestSuite) TestSecondCallerDeclined() {
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan bool)

	go func() {
		ran, _ := s.guard.Do(func() error {
			close(entered)
			<-release
			return nil
		})
		done <- ran
	}()

	<-entered
	ran, err := s.guard.Do(func() error {
		s.Fail("second caller must not run")
		return nil
	})
	s.False(ran)
	s.NoError(err)
	s.True(s.guard.Held())

	close(release)
	s.True(<-done)
	s.False(s.guard.Held())
}

func (s *GuardTestSuite) TestErrorReleasesGuard() {
	boom := errors.New("boom")

	ran, err := s.guard.Do(func() error { return boom })

	s.True(ran)
	s.ErrorIs(err, boom)
	s.False(s.guard.Held())
}

func (s *GuardTestSuite) TestPanicReleasesGuard() {
	s.Panics(func() {
		_, _ = s.guard.Do(func() error { panic("hook exploded") })
	})
	s.False(s.guard.Held())
	s.True(s.guard.TryAcquire())
}

func (s *GuardTestSuite) TestConcurrentAcquireSingleWinner() {
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.guard.TryAcquire() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, winners)
}
