package logger

import (
	"reflect"
	"testing"
)

type recordingLogger struct {
	entries []string
	keyvals [][]any
}

func (r *recordingLogger) record(level, message string, keyvals []any) {
	r.entries = append(r.entries, level+":"+message)
	r.keyvals = append(r.keyvals, keyvals)
}

func (r *recordingLogger) Log(m string, kv ...any)   { r.record("log", m, kv) }
func (r *recordingLogger) Debug(m string, kv ...any) { r.record("debug", m, kv) }
func (r *recordingLogger) Info(m string, kv ...any)  { r.record("info", m, kv) }
func (r *recordingLogger) Warn(m string, kv ...any)  { r.record("warn", m, kv) }
func (r *recordingLogger) Error(m string, kv ...any) { r.record("error", m, kv) }
func (r *recordingLogger) Fatal(m string, kv ...any) { r.record("fatal", m, kv) }

func TestDispatchToAllInstances(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	Init(a, b)
	t.Cleanup(func() { singleton = nil })

	Info("[Graph] merged", "entities", 2)
	Log("plain", "k", "v")
	Warn("careful")

	want := []string{"info:[Graph] merged", "log:plain", "warn:careful"}
	for _, r := range []*recordingLogger{a, b} {
		if !reflect.DeepEqual(r.entries, want) {
			t.Fatalf("entries = %#v, want %#v", r.entries, want)
		}
		if !reflect.DeepEqual(r.keyvals[1], []any{"k", "v"}) {
			t.Errorf("Log dropped keyvals: %#v", r.keyvals[1])
		}
	}
}

func TestUninitializedLoggerIsNoop(t *testing.T) {
	singleton = nil
	Info("nothing happens")
	Error("still nothing")
}
