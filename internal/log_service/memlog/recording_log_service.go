// Package memlog keeps log events in memory so callers can inspect them.
package memlog

import (
	"sync"

	"github.com/AnishMulay/devcore/internal/log_service"
)

type Entry struct {
	Level string
	Event log_service.LogEvent
}

type RecordingLogService struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecordingLogService() *RecordingLogService {
	return &RecordingLogService{}
}

func (ls *RecordingLogService) record(level string, event log_service.LogEvent) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.entries = append(ls.entries, Entry{Level: level, Event: event})
}

func (ls *RecordingLogService) Entries() []Entry {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make([]Entry, len(ls.entries))
	copy(out, ls.entries)
	return out
}

// Count returns how many events were recorded at level.
func (ls *RecordingLogService) Count(level string) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	n := 0
	for _, e := range ls.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (ls *RecordingLogService) Reset() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.entries = nil
}

func (ls *RecordingLogService) Debug(event log_service.LogEvent) {
	ls.record(log_service.DebugLevel, event)
}

func (ls *RecordingLogService) Info(event log_service.LogEvent) {
	ls.record(log_service.InfoLevel, event)
}

func (ls *RecordingLogService) Warn(event log_service.LogEvent) {
	ls.record(log_service.WarnLevel, event)
}

func (ls *RecordingLogService) Error(event log_service.LogEvent) {
	ls.record(log_service.ErrorLevel, event)
}

var _ log_service.LogService = (*RecordingLogService)(nil)
