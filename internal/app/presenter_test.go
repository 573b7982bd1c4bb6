package app_test

import (
	"sync"
	"testing"
	"time"

	"checkpoint-quiz/internal/domain"
)

type event struct {
	kind    string
	payload any
}

// recordingPresenter keeps every call and lets tests wait for a given kind in order.
type recordingPresenter struct {
	mu     sync.Mutex
	events []event
	ch     chan event
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{ch: make(chan event, 1024)}
}

func (p *recordingPresenter) record(kind string, payload any) {
	e := event{kind: kind, payload: payload}
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	p.ch <- e
}

func (p *recordingPresenter) Question(v domain.View)     { p.record("question", v) }
func (p *recordingPresenter) Feedback(f domain.Feedback) { p.record("feedback", f) }
func (p *recordingPresenter) Answer(m domain.AnswerMark) { p.record("answer", m) }
func (p *recordingPresenter) Stats(s domain.Stats)       { p.record("stats", s) }
func (p *recordingPresenter) SkipVisible(v bool)         { p.record("skip", v) }
func (p *recordingPresenter) Results(r domain.Results)   { p.record("results", r) }
func (p *recordingPresenter) Cue(c domain.Cue)           { p.record("cue", c) }
func (p *recordingPresenter) Clock(s int)                { p.record("clock", s) }
func (p *recordingPresenter) Sound(enabled bool)         { p.record("sound", enabled) }

// waitFor consumes events until one of kind arrives.
func (p *recordingPresenter) waitFor(t *testing.T, kind string) event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-p.ch:
			if e.kind == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
			return event{}
		}
	}
}

func (p *recordingPresenter) count(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}
