package services

import (
	"log"
	"sync"
	"time"
)

// DefaultNoteDebounce is how long a note must sit quiet before it is written
const DefaultNoteDebounce = time.Second

// NoteWriter coalesces rapid note edits into one store write per booking.
// Each edit resets that booking's timer; on quiescence exactly one write is
// flushed. Stop flushes everything still pending so no edit is lost on
// shutdown and no timer fires after teardown.
type NoteWriter struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[uint]*pendingNote
	write   func(bookingID uint, note string, updatedBy string)
	stopped bool
}

type pendingNote struct {
	note      string
	updatedBy string
	timer     *time.Timer
}

// NewNoteWriter creates a note writer flushing through the given write func
func NewNoteWriter(delay time.Duration, write func(bookingID uint, note string, updatedBy string)) *NoteWriter {
	if delay <= 0 {
		delay = DefaultNoteDebounce
	}
	return &NoteWriter{
		delay:   delay,
		pending: make(map[uint]*pendingNote),
		write:   write,
	}
}

// Set buffers a note edit for a booking, resetting its quiescence timer
func (w *NoteWriter) Set(bookingID uint, note, updatedBy string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		// Too late to buffer; write straight through
		go w.write(bookingID, note, updatedBy)
		return
	}

	if entry, ok := w.pending[bookingID]; ok {
		entry.note = note
		entry.updatedBy = updatedBy
		entry.timer.Reset(w.delay)
		return
	}

	entry := &pendingNote{note: note, updatedBy: updatedBy}
	entry.timer = time.AfterFunc(w.delay, func() {
		w.flush(bookingID)
	})
	w.pending[bookingID] = entry
}

// flush pops and writes one booking's buffered note
func (w *NoteWriter) flush(bookingID uint) {
	w.mu.Lock()
	entry, ok := w.pending[bookingID]
	if ok {
		delete(w.pending, bookingID)
	}
	w.mu.Unlock()

	if ok {
		w.write(bookingID, entry.note, entry.updatedBy)
	}
}

// Pending returns the number of buffered notes
func (w *NoteWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Stop cancels all timers and flushes every buffered note synchronously
func (w *NoteWriter) Stop() {
	w.mu.Lock()
	w.stopped = true
	entries := make(map[uint]*pendingNote, len(w.pending))
	for id, entry := range w.pending {
		entry.timer.Stop()
		entries[id] = entry
	}
	w.pending = make(map[uint]*pendingNote)
	w.mu.Unlock()

	for id, entry := range entries {
		w.write(id, entry.note, entry.updatedBy)
	}
	if len(entries) > 0 {
		log.Printf("📝 Flushed %d pending note(s) on shutdown", len(entries))
	}
}
