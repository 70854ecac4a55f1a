package sequencer

import "github.com/lowaak/liftsession/internal/interval"

func (s *Sequencer) timerTarget() (*activeBlock, interval.Target, error) {
	s.mu.Lock()
	ab := s.active
	s.mu.Unlock()

	switch {
	case ab == nil:
		return nil, nil, ErrNotStarted
	case ab.scheduler != nil:
		return ab, ab.scheduler, nil
	case ab.countdown != nil:
		return ab, ab.countdown, nil
	}
	return ab, nil, ErrNoTimer
}

// StartTimer opens the block's timer and starts ticking it. Any other ticking
// timer, such as a rest countdown, is stopped.
func (s *Sequencer) StartTimer() error {
	ab, target, err := s.timerTarget()
	if err != nil {
		return err
	}
	if ab.scheduler != nil {
		ab.scheduler.Start()
	} else {
		ab.countdown.Start()
	}
	s.loop.Start(target)
	return nil
}

// PauseTimer freezes the running timer
func (s *Sequencer) PauseTimer() error {
	if _, _, err := s.timerTarget(); err != nil {
		return err
	}
	s.loop.Pause()
	return nil
}

// ResumeTimer continues a paused timer
func (s *Sequencer) ResumeTimer() error {
	if _, _, err := s.timerTarget(); err != nil {
		return err
	}
	s.loop.Resume()
	return nil
}

// CloseTimer tears the ticking loop down. The interval scheduler keeps its
// position and countdowns keep their elapsed time, so StartTimer resumes
// where it stopped.
func (s *Sequencer) CloseTimer() error {
	ab, _, err := s.timerTarget()
	if err != nil {
		return err
	}
	s.loop.Stop()
	if ab.scheduler != nil {
		ab.scheduler.Deactivate()
	} else {
		ab.countdown.Deactivate()
	}
	return nil
}

// TimerNext skips to the next interval phase
func (s *Sequencer) TimerNext() error {
	ab, _, err := s.timerTarget()
	if err != nil {
		return err
	}
	if ab.scheduler == nil {
		return ErrNoTimer
	}
	ab.scheduler.Next()
	return nil
}

// TimerPrevious goes back to the previous interval phase
func (s *Sequencer) TimerPrevious() error {
	ab, _, err := s.timerTarget()
	if err != nil {
		return err
	}
	if ab.scheduler == nil {
		return ErrNoTimer
	}
	ab.scheduler.Previous()
	return nil
}

// FinishTimer stops a countdown early, recording the elapsed time (For-Time)
func (s *Sequencer) FinishTimer() (interval.CountdownState, error) {
	ab, _, err := s.timerTarget()
	if err != nil {
		return interval.CountdownState{}, err
	}
	if ab.countdown == nil {
		return interval.CountdownState{}, ErrNoTimer
	}
	s.loop.Stop()
	return ab.countdown.Finish(), nil
}

// SkipRest ends the running rest countdown
func (s *Sequencer) SkipRest() {
	s.mu.Lock()
	ab := s.active
	s.mu.Unlock()
	if ab == nil {
		return
	}
	if rest := ab.runner.Rest(); rest != nil {
		s.loop.Stop()
		rest.Finish()
	}
}

// FinishBlock completes an open-ended block without logging it, e.g. after
// its timer ran out and the user chose to move on
func (s *Sequencer) FinishBlock() bool {
	s.mu.Lock()
	ab := s.active
	s.mu.Unlock()
	if ab == nil {
		return false
	}
	return ab.runner.CompleteTimed()
}
