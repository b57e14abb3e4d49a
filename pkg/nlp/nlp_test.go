package nlp

import (
	"context"
	"errors"
	"testing"
)

type stubBackend struct {
	closed int
}

func (s *stubBackend) Recognize(context.Context, string) ([]RawEntity, error) { return nil, nil }
func (s *stubBackend) Parse(context.Context, string) ([]Sentence, error)      { return nil, nil }
func (s *stubBackend) Close() error {
	s.closed++
	return nil
}

func TestNewServiceRequiresEverySlot(t *testing.T) {
	b := &stubBackend{}
	_, err := NewService(NewServiceParams{
		EnglishNER:    b,
		ChineseNER:    b,
		EnglishParser: b,
	})
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("NewService() error = %v, want ErrNoBackend", err)
	}
}

func TestServiceClosesSharedBackendOnce(t *testing.T) {
	shared := &stubBackend{}
	other := &stubBackend{}
	svc, err := NewService(NewServiceParams{
		EnglishNER:    shared,
		ChineseNER:    shared,
		EnglishParser: shared,
		ChineseParser: other,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.Recognizer(Chinese) != shared || svc.Parser(Chinese) != other {
		t.Fatal("slots not wired as configured")
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if shared.closed != 1 || other.closed != 1 {
		t.Errorf("close counts = %d/%d, want 1/1", shared.closed, other.closed)
	}
}

func TestSentenceRights(t *testing.T) {
	s := Sentence{Tokens: []Token{
		{Text: "Auditors", Dep: "nsubj", Head: 1},
		{Text: "apply", Dep: "ROOT", Head: 1},
		{Text: "standards", Dep: "dobj", Head: 1},
	}}
	r := s.Rights(1)
	if len(r) != 1 || r[0].Text != "standards" {
		t.Errorf("Rights(1) = %#v", r)
	}
	if len(s.Rights(0)) != 0 {
		t.Error("Rights(0) should be empty")
	}
}
