package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/engine"
	"checkpoint-quiz/internal/questionset"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live runners are kept (in-memory, Redis-marked, etc).
// Replace and Remove must be atomic per client id.
type SessionRepository interface {
	// Replace stores runner and returns the runner it displaced, or nil.
	Replace(runner *Runner) *Runner
	Get(clientID string) (*Runner, bool)
	// Remove forgets runner if it is still current and reports whether it did.
	Remove(runner *Runner) bool
}

// QuestionSetRepository loads question sets (from cache/backing store).
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionSetStore persists uploaded question sets.
type QuestionSetStore interface {
	SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error
}

// PresetLister lists the question sets a client can pick from.
type PresetLister interface {
	ListQuestionSets(ctx context.Context) ([]domain.QuestionSetSummary, error)
}

// PreferenceRepository keeps the per-client sound flag, the only state kept across sessions.
type PreferenceRepository interface {
	SoundEnabled(ctx context.Context, clientID string) (bool, error)
	SetSoundEnabled(ctx context.Context, clientID string, enabled bool) error
}

// QuizService contains the quiz runner use cases.
type QuizService struct {
	sessions    SessionRepository
	sets        QuestionSetRepository
	uploads     QuestionSetStore
	presets     PresetLister
	preferences PreferenceRepository
	cfg         RunnerConfig
	engineOpts  []engine.Option
}

// Option configures a QuizService.
type Option func(*QuizService)

// WithRunnerConfig overrides feedback delays and the clock refresh.
func WithRunnerConfig(cfg RunnerConfig) Option {
	return func(s *QuizService) { s.cfg = cfg }
}

// WithEngineOptions passes options to every engine the service creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *QuizService) { s.engineOpts = append(s.engineOpts, opts...) }
}

func NewQuizService(store SessionRepository, sets QuestionSetRepository, uploads QuestionSetStore, presets PresetLister, prefs PreferenceRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:    store,
		sets:        sets,
		uploads:     uploads,
		presets:     presets,
		preferences: prefs,
		cfg:         DefaultRunnerConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open attaches a presenter for clientID, replacing any runner the client already had.
func (s *QuizService) Open(ctx context.Context, clientID string, presenter Presenter) *Runner {
	runner := NewRunner(clientID, presenter, s.cfg, s.engineOpts...)
	enabled, err := s.preferences.SoundEnabled(ctx, clientID)
	if err != nil {
		log.Printf("load sound preference for %s: %v", clientID, err)
		enabled = true
	}
	runner.sound = enabled

	if old := s.sessions.Replace(runner); old != nil {
		old.Close()
	} else {
		activeRunners.Inc()
	}
	runner.Open()
	return runner
}

// Start loads setID and begins a normal session for the client.
func (s *QuizService) Start(ctx context.Context, clientID, setID string) error {
	runner, err := s.runner(clientID)
	if err != nil {
		return err
	}
	set, err := s.sets.GetQuestionSet(ctx, setID)
	if err != nil {
		return err
	}
	if err := questionset.ValidateSet(set.Questions); err != nil {
		return fmt.Errorf("question set %s: %w", setID, err)
	}
	runner.Start(set)
	return nil
}

// Answer submits an option for the client's current question.
func (s *QuizService) Answer(_ context.Context, clientID, option string) error {
	runner, err := s.runner(clientID)
	if err != nil {
		return err
	}
	return runner.Answer(option)
}

// Skip skips the client's current question.
func (s *QuizService) Skip(_ context.Context, clientID string) error {
	runner, err := s.runner(clientID)
	if err != nil {
		return err
	}
	return runner.Skip()
}

// Review starts a review of the client's last mistakes.
func (s *QuizService) Review(_ context.Context, clientID string) error {
	runner, err := s.runner(clientID)
	if err != nil {
		return err
	}
	return runner.Review()
}

// Restart replays the client's last question set.
func (s *QuizService) Restart(_ context.Context, clientID string) error {
	runner, err := s.runner(clientID)
	if err != nil {
		return err
	}
	return runner.Restart()
}

// SetSound stores the client's sound preference and applies it to the live runner.
func (s *QuizService) SetSound(ctx context.Context, clientID string, enabled bool) error {
	if err := s.preferences.SetSoundEnabled(ctx, clientID, enabled); err != nil {
		return fmt.Errorf("save sound preference: %w", err)
	}
	if runner, ok := s.sessions.Get(clientID); ok {
		runner.SetSound(enabled)
	}
	return nil
}

// Close stops the client's runner and forgets it.
func (s *QuizService) Close(ctx context.Context, clientID string) {
	runner, ok := s.sessions.Get(clientID)
	if !ok {
		return
	}
	s.Release(ctx, runner)
}

// Release closes runner and forgets it unless the client has since opened a newer one.
func (s *QuizService) Release(_ context.Context, runner *Runner) {
	runner.Close()
	if s.sessions.Remove(runner) {
		activeRunners.Dec()
	}
}

// Upload parses a CSV question set and stores it under a fresh id.
func (s *QuizService) Upload(ctx context.Context, name string, csv io.Reader) (domain.QuestionSetSummary, error) {
	questions, err := questionset.Parse(csv)
	if err != nil {
		return domain.QuestionSetSummary{}, err
	}
	id := uuid.NewString()
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}
	set := domain.QuestionSet{ID: id, Name: name, Questions: questions}
	if err := s.uploads.SaveQuestionSet(ctx, set); err != nil {
		return domain.QuestionSetSummary{}, fmt.Errorf("save question set: %w", err)
	}
	return domain.QuestionSetSummary{ID: id, Name: name, Count: len(questions)}, nil
}

// Presets lists selectable question sets.
func (s *QuizService) Presets(ctx context.Context) ([]domain.QuestionSetSummary, error) {
	return s.presets.ListQuestionSets(ctx)
}

func (s *QuizService) runner(clientID string) (*Runner, error) {
	runner, ok := s.sessions.Get(clientID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return runner, nil
}
