package engine

import (
	"fmt"
	"math/rand"
	"time"

	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/tracker"
)

const (
	// CheckpointStreak is the number of consecutive correct answers that moves the checkpoint.
	CheckpointStreak = 5
	// SkipThreshold is the wrong-attempt count from which a question may be skipped.
	SkipThreshold = 3
	// ReviewAttemptCap is the attempt count shown to the user in review mode.
	ReviewAttemptCap = 4
)

// Delays are the pauses between feedback and the next question.
type Delays struct {
	Correct    time.Duration
	Wrong      time.Duration
	Checkpoint time.Duration // checkpoint notice, counted from the answer
	Skip       time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Correct:    1500 * time.Millisecond,
		Wrong:      3000 * time.Millisecond,
		Checkpoint: 750 * time.Millisecond,
		Skip:       1000 * time.Millisecond,
	}
}

// Recorder is the timing contract the engine needs; *tracker.Tracker satisfies it.
type Recorder interface {
	StartSession()
	RecordQuestion(key string)
	StopSession()
	Stats() domain.TimeStats
}

// Notice is a secondary notification fired Delay after the answer it belongs to.
type Notice struct {
	Delay    time.Duration
	Feedback domain.Feedback
	Cue      domain.Cue
}

// Transition is a deferred move to Target that the host applies after Delay.
// Transitions from an earlier session (different Epoch) are ignored by Apply.
type Transition struct {
	Epoch  uint64
	Target int
	Delay  time.Duration
	Notice *Notice
}

// Outcome describes what an answer did.
type Outcome struct {
	Correct      bool
	Mark         domain.AnswerMark
	Attempts     int
	SkipEligible bool
	Feedback     domain.Feedback
	Cue          domain.Cue
	Stats        domain.Stats
	Transition   Transition
}

// Skipped describes a skip.
type Skipped struct {
	Feedback   domain.Feedback
	Stats      domain.Stats
	Transition Transition
}

// Step is the screen after Start or Apply: either the current question or the results.
type Step struct {
	View    *domain.View
	Stats   domain.Stats
	Results *domain.Results
}

// Ended reports whether the step is the final results screen.
func (s Step) Ended() bool {
	return s.Results != nil
}

// Engine is the quiz-flow state machine. It is not safe for concurrent use;
// hosts serialise calls.
type Engine struct {
	rnd            *rand.Rand
	recorder       Recorder
	delays         Delays
	shuffleOptions bool

	epoch   uint64
	active  bool
	pending bool

	sequence     []domain.Question
	position     int
	checkpoint   int
	streak       int
	attempts     map[string]int
	correctSet   map[string]struct{}
	wrongSet     map[string]struct{}
	totalCorrect int
	totalWrong   int
	wrongLog     []domain.Question
	review       bool
	results      *domain.Results
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for question and option shuffling.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithRecorder sets the timing recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithDelays(d Delays) Option {
	return func(e *Engine) { e.delays = d }
}

// WithOptionShuffle toggles shuffling of option display order (on by default).
func WithOptionShuffle(enabled bool) Option {
	return func(e *Engine) { e.shuffleOptions = enabled }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		delays:         DefaultDelays(),
		shuffleOptions: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recorder == nil {
		e.recorder = tracker.New()
	}
	e.resetState()
	return e
}

// Start begins a new session, discarding any previous one. Review sessions keep the given
// order and never move or roll back to checkpoints.
func (e *Engine) Start(questions []domain.Question, review bool) Step {
	e.epoch++
	e.resetState()
	e.review = review
	e.sequence = make([]domain.Question, len(questions))
	copy(e.sequence, questions)
	if !review {
		Shuffle(e.rnd, e.sequence)
	}
	e.active = true
	e.recorder.StartSession()
	return e.display()
}

// SubmitAnswer grades option against the current question and returns the pending transition.
func (e *Engine) SubmitAnswer(option string) (Outcome, error) {
	if err := e.checkInput(); err != nil {
		return Outcome{}, err
	}

	q := e.sequence[e.position]
	key := q.Key()
	e.recorder.RecordQuestion(key)

	var out Outcome
	out.Mark = domain.AnswerMark{Selected: option, Correct: q.Correct}
	if option == q.Correct {
		out = e.answeredCorrectly(key, out)
	} else {
		out = e.answeredWrongly(q, out)
	}
	out.Transition.Epoch = e.epoch
	out.Stats = e.stats()
	e.pending = true
	return out, nil
}

func (e *Engine) answeredCorrectly(key string, out Outcome) Outcome {
	e.streak++
	if _, wasWrong := e.wrongSet[key]; wasWrong {
		delete(e.wrongSet, key)
		e.totalWrong--
		e.correctSet[key] = struct{}{}
		e.totalCorrect++
	} else if _, seen := e.correctSet[key]; !seen {
		e.correctSet[key] = struct{}{}
		e.totalCorrect++
	}
	delete(e.attempts, key)

	out.Correct = true
	out.Cue = domain.CueCorrect
	out.Feedback = domain.Feedback{Kind: domain.FeedbackCorrect, Message: "Correct!"}
	out.Transition.Target = e.position + 1
	out.Transition.Delay = e.delays.Correct

	if e.streak == CheckpointStreak && !e.review {
		e.checkpoint = e.position + 1
		e.streak = 0
		out.Transition.Notice = &Notice{
			Delay: e.delays.Checkpoint,
			Cue:   domain.CueCheckpoint,
			Feedback: domain.Feedback{
				Kind:    domain.FeedbackCheckpoint,
				Message: fmt.Sprintf("Checkpoint Reached! Progress saved at Q%d", e.checkpoint+1),
			},
		}
	}
	return out
}

func (e *Engine) answeredWrongly(q domain.Question, out Outcome) Outcome {
	key := q.Key()
	e.streak = 0
	if _, wasCorrect := e.correctSet[key]; wasCorrect {
		delete(e.correctSet, key)
		e.totalCorrect--
		e.wrongSet[key] = struct{}{}
		e.totalWrong++
	} else if _, seen := e.wrongSet[key]; !seen {
		e.wrongSet[key] = struct{}{}
		e.totalWrong++
	}
	e.attempts[key]++
	attempts := e.attempts[key]
	e.logWrong(q)

	out.Cue = domain.CueWrong
	out.Attempts = attempts
	out.Transition.Target = e.position
	out.Transition.Delay = e.delays.Wrong

	switch {
	case attempts >= SkipThreshold:
		out.SkipEligible = true
		out.Feedback = domain.Feedback{Kind: domain.FeedbackWrong, Message: "Wrong! You can skip this question or try again."}
	case e.review:
		out.Feedback = domain.Feedback{Kind: domain.FeedbackWrong, Message: fmt.Sprintf("Wrong! Try again. (Attempt %d/%d)", attempts, ReviewAttemptCap)}
	default:
		out.Transition.Target = e.checkpoint
		out.Feedback = domain.Feedback{Kind: domain.FeedbackWrong, Message: fmt.Sprintf("Wrong! Returning to checkpoint (Q%d)", e.checkpoint+1)}
	}
	return out
}

func (e *Engine) logWrong(q domain.Question) {
	for _, logged := range e.wrongLog {
		if logged.Key() == q.Key() {
			return
		}
	}
	e.wrongLog = append(e.wrongLog, cloneQuestion(q))
}

// Skip moves past the current question once it has enough wrong attempts.
func (e *Engine) Skip() (Skipped, error) {
	if err := e.checkInput(); err != nil {
		return Skipped{}, err
	}
	key := e.sequence[e.position].Key()
	if e.attempts[key] < SkipThreshold {
		return Skipped{}, domain.ErrSkipNotAllowed
	}

	e.recorder.RecordQuestion(key)
	delete(e.attempts, key)
	e.position++
	e.pending = true
	return Skipped{
		Feedback: domain.Feedback{Kind: domain.FeedbackCheckpoint, Message: "Question skipped."},
		Stats:    e.stats(),
		Transition: Transition{
			Epoch:  e.epoch,
			Target: e.position,
			Delay:  e.delays.Skip,
		},
	}, nil
}

// Apply performs a pending transition. The boolean is false when the transition is stale.
func (e *Engine) Apply(t Transition) (Step, bool) {
	if t.Epoch != e.epoch || !e.active || !e.pending {
		return Step{}, false
	}
	e.position = t.Target
	e.pending = false
	return e.display(), true
}

// WrongQuestions returns every question answered wrongly at least once, in first-miss order.
func (e *Engine) WrongQuestions() []domain.Question {
	out := make([]domain.Question, len(e.wrongLog))
	for i, q := range e.wrongLog {
		out[i] = cloneQuestion(q)
	}
	return out
}

// SkipEligible reports whether the current question may be skipped.
func (e *Engine) SkipEligible() bool {
	if !e.active || e.position >= len(e.sequence) {
		return false
	}
	return e.attempts[e.sequence[e.position].Key()] >= SkipThreshold
}

// Stats returns the live scoreboard.
func (e *Engine) Stats() domain.Stats {
	return e.stats()
}

// Results returns the final report, or nil while the session is running.
func (e *Engine) Results() *domain.Results {
	return e.results
}

// Active reports whether a session has a current question.
func (e *Engine) Active() bool {
	return e.active
}

// Pending reports whether a transition is waiting to be applied.
func (e *Engine) Pending() bool {
	return e.pending
}

// Epoch identifies the current session.
func (e *Engine) Epoch() uint64 {
	return e.epoch
}

func (e *Engine) checkInput() error {
	if !e.active || e.position >= len(e.sequence) {
		return domain.ErrSessionNotActive
	}
	if e.pending {
		return domain.ErrTransitionPending
	}
	return nil
}

func (e *Engine) display() Step {
	if e.position >= len(e.sequence) {
		return e.end()
	}
	q := e.sequence[e.position]
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	if e.shuffleOptions {
		Shuffle(e.rnd, options)
	}
	return Step{
		View: &domain.View{
			Number:      e.position + 1,
			Total:       len(e.sequence),
			Prompt:      q.Prompt,
			Options:     options,
			SkipVisible: e.attempts[q.Key()] >= SkipThreshold,
		},
		Stats: e.stats(),
	}
}

func (e *Engine) end() Step {
	if e.results == nil {
		e.recorder.StopSession()
		e.active = false
		e.results = &domain.Results{
			Correct:        e.totalCorrect,
			Wrong:          e.totalWrong,
			WrongQuestions: e.WrongQuestions(),
			ReviewMode:     e.review,
			OfferReview:    len(e.wrongLog) > 0 && !e.review,
			Time:           e.recorder.Stats(),
		}
	}
	return Step{Stats: e.stats(), Results: e.results}
}

func (e *Engine) stats() domain.Stats {
	return domain.Stats{
		Question:   e.position + 1,
		Total:      len(e.sequence),
		Streak:     e.streak,
		Checkpoint: e.checkpoint + 1,
		Correct:    e.totalCorrect,
		Wrong:      e.totalWrong,
	}
}

func (e *Engine) resetState() {
	e.active = false
	e.pending = false
	e.sequence = nil
	e.position = 0
	e.checkpoint = 0
	e.streak = 0
	e.attempts = make(map[string]int)
	e.correctSet = make(map[string]struct{})
	e.wrongSet = make(map[string]struct{})
	e.totalCorrect = 0
	e.totalWrong = 0
	e.wrongLog = nil
	e.review = false
	e.results = nil
}

func cloneQuestion(q domain.Question) domain.Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	q.Options = opts
	return q
}
