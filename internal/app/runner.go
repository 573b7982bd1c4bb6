package app

import (
	"sync"
	"time"

	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/engine"
	"checkpoint-quiz/internal/tracker"
)

// Presenter renders session changes for one client. Implementations must be safe for
// concurrent use: calls arrive from request handlers, timers and the clock ticker.
type Presenter interface {
	Question(view domain.View)
	Feedback(feedback domain.Feedback)
	Answer(mark domain.AnswerMark)
	Stats(stats domain.Stats)
	SkipVisible(visible bool)
	Results(results domain.Results)
	Cue(cue domain.Cue)
	Clock(elapsedSeconds int)
	Sound(enabled bool)
}

// RunnerConfig tunes feedback pauses and the clock refresh.
type RunnerConfig struct {
	Delays       engine.Delays
	ClockRefresh time.Duration
}

// DefaultRunnerConfig mirrors the engine's default delays with a one second clock.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Delays:       engine.DefaultDelays(),
		ClockRefresh: time.Second,
	}
}

// Runner hosts one client's quiz: it serialises engine calls, applies deferred
// transitions on timers and forwards every change to the presenter.
type Runner struct {
	id        string
	presenter Presenter

	mu      sync.Mutex
	engine  *engine.Engine
	tracker *tracker.Tracker
	timers  []*time.Timer
	notice  *engine.Notice
	sound   bool
	lastSet domain.QuestionSet
	closed  bool
}

// NewRunner builds a runner; extra engine options (e.g. a seeded random source) are applied last.
func NewRunner(id string, presenter Presenter, cfg RunnerConfig, opts ...engine.Option) *Runner {
	tr := tracker.New(tracker.WithRefresh(cfg.ClockRefresh, presenter.Clock))
	engineOpts := append([]engine.Option{
		engine.WithRecorder(tr),
		engine.WithDelays(cfg.Delays),
	}, opts...)
	return &Runner{
		id:        id,
		presenter: presenter,
		engine:    engine.New(engineOpts...),
		tracker:   tr,
		sound:     true,
	}
}

// ID returns the client id the runner belongs to.
func (r *Runner) ID() string {
	return r.id
}

// Start begins a fresh, shuffled session over set.
func (r *Runner) Start(set domain.QuestionSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSet = set
	r.startLocked(set.Questions, false)
}

// Restart replays the last started question set.
func (r *Runner) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastSet.Questions == nil {
		return domain.ErrNoQuestionSet
	}
	r.startLocked(r.lastSet.Questions, false)
	return nil
}

// Review walks the questions missed in the previous session, in order, without checkpoints.
func (r *Runner) Review() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wrong := r.engine.WrongQuestions()
	if len(wrong) == 0 {
		return domain.ErrNothingToReview
	}
	r.startLocked(wrong, true)
	return nil
}

func (r *Runner) startLocked(questions []domain.Question, review bool) {
	r.cancelTimersLocked()
	r.tracker.Reset()
	sessionsStarted.WithLabelValues(modeLabel(review)).Inc()
	r.presenter.SkipVisible(false)
	r.presentLocked(r.engine.Start(questions, review))
}

// Answer submits option for the current question.
func (r *Runner) Answer(option string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := r.engine.SubmitAnswer(option)
	if err != nil {
		return err
	}
	answersTotal.WithLabelValues(resultLabel(out.Correct)).Inc()
	if out.Transition.Notice != nil {
		checkpointsReached.Inc()
	}

	r.presenter.Answer(out.Mark)
	r.cueLocked(out.Cue)
	r.presenter.SkipVisible(out.SkipEligible)
	r.presenter.Feedback(out.Feedback)
	r.presenter.Stats(out.Stats)
	r.scheduleLocked(out.Transition)
	return nil
}

// Skip leaves the current question once it is eligible.
func (r *Runner) Skip() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	skipped, err := r.engine.Skip()
	if err != nil {
		return err
	}
	questionsSkipped.Inc()
	r.presenter.SkipVisible(false)
	r.presenter.Feedback(skipped.Feedback)
	r.presenter.Stats(skipped.Stats)
	r.scheduleLocked(skipped.Transition)
	return nil
}

// SetSound toggles audio cues for this runner.
func (r *Runner) SetSound(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sound = enabled
	r.presenter.Sound(enabled)
	if enabled {
		r.presenter.Cue(domain.CueCorrect)
	}
}

// Open plays the session-open cue.
func (r *Runner) Open() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.presenter.Sound(r.sound)
	r.cueLocked(domain.CueOpen)
}

// WrongQuestions returns the current session's missed questions.
func (r *Runner) WrongQuestions() []domain.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.WrongQuestions()
}

// Close cancels pending timers and stops the clock. The runner ignores timers after Close.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelTimersLocked()
	r.tracker.Reset()
}

func (r *Runner) scheduleLocked(t engine.Transition) {
	r.timers = append(r.timers, time.AfterFunc(t.Delay, func() { r.apply(t) }))
	if t.Notice != nil {
		epoch := t.Epoch
		r.notice = t.Notice
		r.timers = append(r.timers, time.AfterFunc(t.Notice.Delay, func() { r.notify(epoch) }))
	}
}

func (r *Runner) apply(t engine.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	step, ok := r.engine.Apply(t)
	if !ok {
		return
	}
	// a notice slower than the transition is shown before the next question, never over it
	r.deliverNoticeLocked()
	r.cancelTimersLocked()
	r.presentLocked(step)
}

func (r *Runner) notify(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || epoch != r.engine.Epoch() {
		return
	}
	r.deliverNoticeLocked()
}

func (r *Runner) deliverNoticeLocked() {
	n := r.notice
	if n == nil {
		return
	}
	r.notice = nil
	r.cueLocked(n.Cue)
	r.presenter.Feedback(n.Feedback)
}

func (r *Runner) presentLocked(step engine.Step) {
	r.presenter.Stats(step.Stats)
	if step.Ended() {
		sessionDuration.Observe(float64(step.Results.Time.TotalSeconds))
		r.presenter.SkipVisible(false)
		r.presenter.Results(*step.Results)
		return
	}
	r.presenter.SkipVisible(step.View.SkipVisible)
	r.presenter.Question(*step.View)
}

func (r *Runner) cueLocked(c domain.Cue) {
	if r.sound && c != "" {
		r.presenter.Cue(c)
	}
}

func (r *Runner) cancelTimersLocked() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
	r.notice = nil
}
