// Package progress carries per-file byte counts from concurrent uploads to a
// single aggregator that drives the display.
package progress

import "github.com/dmitrijs2005/gofileup/internal/models"

// Stream is an unbounded many-producer, single-consumer queue of progress
// messages. Senders never block on a slow consumer; a pump goroutine buffers
// whatever the consumer has not taken yet.
type Stream struct {
	in  chan models.Progress
	out chan models.Progress
}

func NewStream() *Stream {
	s := &Stream{
		in:  make(chan models.Progress),
		out: make(chan models.Progress),
	}
	go s.pump()
	return s
}

// Sender is the producer side handed to uploads.
func (s *Stream) Sender() chan<- models.Progress {
	return s.in
}

// Messages is the consumer side. It is closed after Close once every queued
// message has been delivered.
func (s *Stream) Messages() <-chan models.Progress {
	return s.out
}

// Close ends the stream. No sends may follow.
func (s *Stream) Close() {
	close(s.in)
}

func (s *Stream) pump() {
	defer close(s.out)

	var queue []models.Progress
	in := s.in

	for in != nil || len(queue) > 0 {
		var (
			out  chan models.Progress
			next models.Progress
		)
		if len(queue) > 0 {
			out = s.out
			next = queue[0]
		}

		select {
		case msg, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, msg)
		case out <- next:
			queue[0] = models.Progress{}
			queue = queue[1:]
		}
	}
}
