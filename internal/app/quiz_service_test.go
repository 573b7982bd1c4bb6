package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"checkpoint-quiz/internal/app"
	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/engine"
	"checkpoint-quiz/internal/infra/memory"
)

func TestStartAnswerUntilResults(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(fastConfig())
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)

	if err := service.Start(ctx, "u1", "set-2"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2; i++ {
		view := presenter.waitFor(t, "question").payload.(domain.View)
		if view.Number != i+1 || view.Total != 2 {
			t.Fatalf("unexpected view %+v", view)
		}
		if err := service.Answer(ctx, "u1", correctFor(view.Prompt)); err != nil {
			t.Fatalf("answer: %v", err)
		}
		fb := presenter.waitFor(t, "feedback").payload.(domain.Feedback)
		if fb.Kind != domain.FeedbackCorrect {
			t.Fatalf("expected correct feedback, got %+v", fb)
		}
	}

	results := presenter.waitFor(t, "results").payload.(domain.Results)
	if results.Correct != 2 || results.Wrong != 0 || results.OfferReview {
		t.Fatalf("unexpected results %+v", results)
	}
	if results.Time.Answered != 2 {
		t.Fatalf("expected 2 timed answers, got %d", results.Time.Answered)
	}
	if err := service.Answer(ctx, "u1", "4"); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected inactive session, got %v", err)
	}
}

func TestOpenPlaysOpeningCue(t *testing.T) {
	service, _ := newTestService(fastConfig())
	presenter := newRecordingPresenter()
	service.Open(context.Background(), "u1", presenter)

	if cue := presenter.waitFor(t, "cue").payload.(domain.Cue); cue != domain.CueOpen {
		t.Fatalf("expected open cue, got %s", cue)
	}
}

func TestAnswerRejectedWhileFeedbackPending(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(slowConfig())
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)
	if err := service.Start(ctx, "u1", "set-2"); err != nil {
		t.Fatalf("start: %v", err)
	}
	view := presenter.waitFor(t, "question").payload.(domain.View)

	if err := service.Answer(ctx, "u1", correctFor(view.Prompt)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := service.Answer(ctx, "u1", correctFor(view.Prompt)); !errors.Is(err, domain.ErrTransitionPending) {
		t.Fatalf("expected pending error, got %v", err)
	}
	if err := service.Skip(ctx, "u1"); !errors.Is(err, domain.ErrTransitionPending) {
		t.Fatalf("expected pending error on skip, got %v", err)
	}
}

func TestRestartCancelsPendingTransition(t *testing.T) {
	ctx := context.Background()
	cfg := app.DefaultRunnerConfig()
	cfg.ClockRefresh = 0
	cfg.Delays.Correct = 50 * time.Millisecond
	service, _ := newTestService(cfg)
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)
	if err := service.Start(ctx, "u1", "set-2"); err != nil {
		t.Fatalf("start: %v", err)
	}
	view := presenter.waitFor(t, "question").payload.(domain.View)
	if err := service.Answer(ctx, "u1", correctFor(view.Prompt)); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if err := service.Restart(ctx, "u1"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	restarted := presenter.waitFor(t, "question").payload.(domain.View)
	if restarted.Number != 1 {
		t.Fatalf("expected restart at question 1, got %d", restarted.Number)
	}

	time.Sleep(150 * time.Millisecond)
	if n := presenter.count("question"); n != 2 {
		t.Fatalf("expected stale transition to be dropped, saw %d question renders", n)
	}
	if err := service.Answer(ctx, "u1", correctFor(restarted.Prompt)); err != nil {
		t.Fatalf("expected fresh session to accept input, got %v", err)
	}
}

func TestWrongAnswersThenReview(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(fastConfig())
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)

	if err := service.Review(ctx, "u1"); !errors.Is(err, domain.ErrNothingToReview) {
		t.Fatalf("expected nothing to review, got %v", err)
	}
	if err := service.Start(ctx, "u1", "set-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	view := presenter.waitFor(t, "question").payload.(domain.View)
	if err := service.Answer(ctx, "u1", "3"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	mark := presenter.waitFor(t, "answer").payload.(domain.AnswerMark)
	if mark.Selected != "3" || mark.Correct != "4" {
		t.Fatalf("unexpected mark %+v", mark)
	}
	if cue := presenter.waitFor(t, "cue").payload.(domain.Cue); cue != domain.CueWrong {
		t.Fatalf("expected wrong cue, got %s", cue)
	}

	again := presenter.waitFor(t, "question").payload.(domain.View)
	if again.Prompt != view.Prompt {
		t.Fatalf("expected rollback to the same question")
	}
	if err := service.Answer(ctx, "u1", "4"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	results := presenter.waitFor(t, "results").payload.(domain.Results)
	if !results.OfferReview || len(results.WrongQuestions) != 1 {
		t.Fatalf("expected review offer, got %+v", results)
	}

	if err := service.Review(ctx, "u1"); err != nil {
		t.Fatalf("review: %v", err)
	}
	reviewView := presenter.waitFor(t, "question").payload.(domain.View)
	if reviewView.Prompt != view.Prompt || reviewView.Total != 1 {
		t.Fatalf("unexpected review view %+v", reviewView)
	}
	if err := service.Answer(ctx, "u1", "3"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	fb := presenter.waitFor(t, "feedback").payload.(domain.Feedback)
	if !strings.Contains(fb.Message, "Attempt 1/4") {
		t.Fatalf("expected review attempt feedback, got %q", fb.Message)
	}
}

func TestSkipAfterThreeMisses(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(fastConfig())
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)
	if err := service.Start(ctx, "u1", "set-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	presenter.waitFor(t, "question")

	if err := service.Skip(ctx, "u1"); !errors.Is(err, domain.ErrSkipNotAllowed) {
		t.Fatalf("expected skip refusal, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := service.Answer(ctx, "u1", "5"); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		view := presenter.waitFor(t, "question").payload.(domain.View)
		if want := i == 2; view.SkipVisible != want {
			t.Fatalf("after %d misses expected skip visible=%v", i+1, want)
		}
	}
	if err := service.Skip(ctx, "u1"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	results := presenter.waitFor(t, "results").payload.(domain.Results)
	if results.Wrong != 1 || results.Correct != 0 || results.Time.Answered != 4 {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestCheckpointNotice(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(fastConfig())
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)
	if err := service.Start(ctx, "u1", "set-6"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		view := presenter.waitFor(t, "question").payload.(domain.View)
		if err := service.Answer(ctx, "u1", correctFor(view.Prompt)); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	for {
		fb := presenter.waitFor(t, "feedback").payload.(domain.Feedback)
		if fb.Kind == domain.FeedbackCheckpoint {
			if !strings.Contains(fb.Message, "Q6") {
				t.Fatalf("unexpected checkpoint message %q", fb.Message)
			}
			break
		}
	}
}

func TestSlowCheckpointNoticeShownBeforeNextQuestion(t *testing.T) {
	ctx := context.Background()
	cfg := fastConfig()
	cfg.Delays.Checkpoint = time.Hour
	service, _ := newTestService(cfg)
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)
	if err := service.Start(ctx, "u1", "set-6"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		view := presenter.waitFor(t, "question").payload.(domain.View)
		if err := service.Answer(ctx, "u1", correctFor(view.Prompt)); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	sixth := presenter.waitFor(t, "question").payload.(domain.View)
	if sixth.Number != 6 {
		t.Fatalf("expected question 6, got %d", sixth.Number)
	}

	notices, questions := 0, 0
	presenter.mu.Lock()
	for _, e := range presenter.events {
		switch e.kind {
		case "question":
			questions++
		case "feedback":
			if e.payload.(domain.Feedback).Kind == domain.FeedbackCheckpoint {
				notices++
				if questions != 5 {
					t.Errorf("checkpoint notice shown after %d questions, want before question 6", questions)
				}
			}
		}
	}
	presenter.mu.Unlock()
	if notices != 1 {
		t.Fatalf("expected exactly one checkpoint notice, got %d", notices)
	}
}

func TestStartRejectsMalformedSet(t *testing.T) {
	ctx := context.Background()
	sets := memory.NewStaticLoader(map[string]domain.QuestionSet{
		"broken": {ID: "broken", Name: "Broken", Questions: []domain.Question{
			{Prompt: "Pick one", Options: []string{"a", "b"}, Correct: "z"},
		}},
		"empty": {ID: "empty", Name: "Empty"},
	})
	service := app.NewQuizService(memory.NewSessionStore(), memory.NewQuestionSetRepository(sets, time.Minute),
		sets, sets, memory.NewPreferenceStore(), app.WithRunnerConfig(fastConfig()))
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)

	if err := service.Start(ctx, "u1", "broken"); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question, got %v", err)
	}
	if err := service.Start(ctx, "u1", "empty"); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set, got %v", err)
	}
	if n := presenter.count("question"); n != 0 {
		t.Fatalf("expected no question rendered, got %d", n)
	}
}

func TestSoundPreferenceSuppressesCues(t *testing.T) {
	ctx := context.Background()
	service, prefs := newTestService(fastConfig())
	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)

	if err := service.SetSound(ctx, "u1", false); err != nil {
		t.Fatalf("set sound: %v", err)
	}
	if enabled, _ := prefs.SoundEnabled(ctx, "u1"); enabled {
		t.Fatalf("expected preference stored")
	}

	second := newRecordingPresenter()
	service.Open(ctx, "u1", second)
	if enabled := second.waitFor(t, "sound").payload.(bool); enabled {
		t.Fatalf("expected reopened runner to keep sound off")
	}
	if err := service.Start(ctx, "u1", "set-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	second.waitFor(t, "question")
	if err := service.Answer(ctx, "u1", "4"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	second.waitFor(t, "results")
	if n := second.count("cue"); n != 0 {
		t.Fatalf("expected no cues with sound off, got %d", n)
	}
}

func TestUploadThenStart(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(fastConfig())

	summary, err := service.Upload(ctx, " Capitals ", strings.NewReader("Capital of France?,Paris,Rome,Berlin,Madrid,Paris\n"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if summary.Name != "Capitals" || summary.Count != 1 || summary.ID == "" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	presenter := newRecordingPresenter()
	service.Open(ctx, "u1", presenter)
	if err := service.Start(ctx, "u1", summary.ID); err != nil {
		t.Fatalf("start uploaded set: %v", err)
	}
	view := presenter.waitFor(t, "question").payload.(domain.View)
	if view.Prompt != "Capital of France?" {
		t.Fatalf("unexpected prompt %q", view.Prompt)
	}

	if _, err := service.Upload(ctx, "empty", strings.NewReader("bad,line\n")); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set error, got %v", err)
	}
}

func TestUnknownClientAndSet(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(fastConfig())

	if err := service.Answer(ctx, "ghost", "a"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	service.Open(ctx, "u1", newRecordingPresenter())
	if err := service.Start(ctx, "u1", "nope"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected set not found, got %v", err)
	}
	if err := service.Restart(ctx, "u1"); !errors.Is(err, domain.ErrNoQuestionSet) {
		t.Fatalf("expected no set, got %v", err)
	}

	service.Close(ctx, "u1")
	if err := service.Skip(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected closed session to be gone, got %v", err)
	}
}

func fastConfig() app.RunnerConfig {
	return app.RunnerConfig{
		Delays: engine.Delays{
			Correct:    time.Millisecond,
			Wrong:      time.Millisecond,
			Checkpoint: time.Millisecond,
			Skip:       time.Millisecond,
		},
	}
}

func slowConfig() app.RunnerConfig {
	cfg := app.DefaultRunnerConfig()
	cfg.ClockRefresh = 0
	cfg.Delays.Correct = time.Hour
	return cfg
}

var answers = map[string]string{}

func correctFor(prompt string) string {
	return answers[prompt]
}

func questions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		prompt := fmt.Sprintf("What is %d + %d?", i, i)
		correct := fmt.Sprint(2 * i)
		qs[i] = domain.Question{
			Prompt:  prompt,
			Options: []string{correct, fmt.Sprint(2*i + 1), fmt.Sprint(2*i + 2), fmt.Sprint(2*i + 3)},
			Correct: correct,
		}
		answers[prompt] = correct
	}
	return qs
}

func newTestService(cfg app.RunnerConfig) (*app.QuizService, *memory.PreferenceStore) {
	answers["What is 2 + 2?"] = "4"
	sets := memory.NewStaticLoader(map[string]domain.QuestionSet{
		"set-1": {
			ID:   "set-1",
			Name: "Single",
			Questions: []domain.Question{
				{Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Correct: "4"},
			},
		},
		"set-2": {ID: "set-2", Name: "Pair", Questions: questions(2)},
		"set-6": {ID: "set-6", Name: "Six", Questions: questions(6)},
	})
	prefs := memory.NewPreferenceStore()
	service := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewQuestionSetRepository(sets, 5*time.Minute),
		sets,
		sets,
		prefs,
		app.WithRunnerConfig(cfg),
	)
	return service, prefs
}
