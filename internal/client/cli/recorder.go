package cli

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Event is one recorded subscription result.
type Event struct {
	ReceivedAt time.Time `msgpack:"received_at"`
	Payload    []byte    `msgpack:"payload"`
}

// Recorder appends subscription events to a msgpack stream on disk so a run
// can be inspected or replayed later.
type Recorder struct {
	mu  sync.Mutex
	f   *os.File
	enc *msgpack.Encoder
}

// OpenRecorder opens (or creates) a recording file for appending.
func OpenRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Recorder{f: f, enc: msgpack.NewEncoder(f)}, nil
}

// Record appends one event. Safe for use from the subscription callback.
func (r *Recorder) Record(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return errors.New("recorder closed")
	}
	return r.enc.Encode(ev)
}

// Close flushes and closes the recording file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// ReadRecording decodes every event from a recording file.
func ReadRecording(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	var events []Event
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, err
		}
		events = append(events, ev)
	}
}
