package memory

import (
	"context"
	"testing"

	"checkpoint-quiz/internal/app"
	"checkpoint-quiz/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	runner := app.NewRunner("client-1", nopPresenter{}, app.DefaultRunnerConfig())
	if old := store.Replace(runner); old != nil {
		t.Fatalf("expected empty store, displaced %v", old)
	}
	got, ok := store.Get("client-1")
	if !ok || got != runner {
		t.Fatalf("expected runner present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 runner, got %d", store.Len())
	}

	newer := app.NewRunner("client-1", nopPresenter{}, app.DefaultRunnerConfig())
	if old := store.Replace(newer); old != runner {
		t.Fatalf("expected first runner displaced")
	}
	if store.Remove(runner) {
		t.Fatalf("expected stale runner not to remove its replacement")
	}
	if got, _ := store.Get("client-1"); got != newer {
		t.Fatalf("expected newer runner kept")
	}

	if !store.Remove(newer) {
		t.Fatalf("expected current runner removed")
	}
	if _, ok := store.Get("client-1"); ok {
		t.Fatalf("expected runner removed")
	}
}

func TestPreferenceStoreDefaultsToSoundOn(t *testing.T) {
	ctx := context.Background()
	store := NewPreferenceStore()

	enabled, err := store.SoundEnabled(ctx, "client-1")
	if err != nil || !enabled {
		t.Fatalf("expected default on, got %v %v", enabled, err)
	}
	_ = store.SetSoundEnabled(ctx, "client-1", false)
	enabled, _ = store.SoundEnabled(ctx, "client-1")
	if enabled {
		t.Fatalf("expected sound off after update")
	}
}

type nopPresenter struct{}

func (nopPresenter) Question(domain.View)     {}
func (nopPresenter) Feedback(domain.Feedback) {}
func (nopPresenter) Answer(domain.AnswerMark) {}
func (nopPresenter) Stats(domain.Stats)       {}
func (nopPresenter) SkipVisible(bool)         {}
func (nopPresenter) Results(domain.Results)   {}
func (nopPresenter) Cue(domain.Cue)           {}
func (nopPresenter) Clock(int)                {}
func (nopPresenter) Sound(bool)               {}
