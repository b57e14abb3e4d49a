package llm

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/ai"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

type fakeClient struct {
	prompt string
	reply  entityResponse
	err    error
}

func (f *fakeClient) GenerateCompletionWithFormat(
	_ context.Context,
	_ string,
	_ string,
	prompt string,
	out any,
	_ ...ai.GenerateOption,
) error {
	f.prompt = prompt
	if f.err != nil {
		return f.err
	}
	*(out.(*entityResponse)) = f.reply
	return nil
}

func (f *fakeClient) ResetMetrics()               {}
func (f *fakeClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestRecognize(t *testing.T) {
	client := &fakeClient{reply: entityResponse{Entities: []entityItem{
		{Word: "PCA", EntityGroup: "MISC"},
		{Word: "Pearson", EntityGroup: "PER"},
	}}}

	got, err := NewRecognizer(client).Recognize(context.Background(), "PCA was introduced by Pearson.")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	want := []nlp.RawEntity{
		{Word: "PCA", EntityGroup: "MISC"},
		{Word: "Pearson", EntityGroup: "PER"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recognize() = %#v, want %#v", got, want)
	}
	if !strings.Contains(client.prompt, "PCA was introduced by Pearson.") {
		t.Errorf("prompt does not contain the chunk: %q", client.prompt)
	}
}

func TestRecognizeWrapsClientError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewRecognizer(&fakeClient{err: boom}).Recognize(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Fatalf("Recognize() error = %v, want wrapped boom", err)
	}
}
