package http

import (
	"testing"
	"time"

	"checkpoint-quiz/internal/domain"
)

func TestPresenterDoesNotBlockAfterWriterExits(t *testing.T) {
	writerDone := make(chan struct{})
	close(writerDone)
	p := &wsPresenter{
		send:       make(chan outboundMessage[any]),
		done:       make(chan struct{}),
		writerDone: writerDone,
	}

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		for i := 0; i < 64; i++ {
			p.Feedback(domain.Feedback{Kind: domain.FeedbackCorrect, Message: "Correct!"})
		}
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("presenter blocked with no writer draining messages")
	}
}

func TestPresenterDeliversWhileWriterRuns(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	p := &wsPresenter{send: send, done: make(chan struct{}), writerDone: make(chan struct{})}

	p.Clock(65)
	msg := <-send
	clock, ok := msg.Payload.(clockPayload)
	if msg.Type != "clock" || !ok || clock.Display != "01:05" {
		t.Fatalf("unexpected message %+v", msg)
	}
}
