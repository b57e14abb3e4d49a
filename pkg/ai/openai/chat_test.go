package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type entityList struct {
	Entities []struct {
		Word        string `json:"word"`
		EntityGroup string `json:"entity_group"`
	} `json:"entities"`
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"entities\":[{\"word\":\"PCA\",\"entity_group\":\"MISC\"}]}"}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`)
	}))
	defer srv.Close()

	client := NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		Model:   "test-model",
		ChatURL: srv.URL,
		ChatKey: "test-key",
	})

	var out entityList
	err := client.GenerateCompletionWithFormat(context.Background(), "entities", "named entities", "PCA reduces dimensions.", &out)
	if err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Entities) != 1 || out.Entities[0].Word != "PCA" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", gotBody["model"])
	}
	if _, ok := gotBody["response_format"]; !ok {
		t.Error("request did not carry a response_format")
	}

	m := client.GetMetrics()
	if m.Requests != 1 || m.TotalTokens != 20 {
		t.Errorf("metrics = %+v", m)
	}
	client.ResetMetrics()
	if client.GetMetrics().Requests != 0 {
		t.Error("ResetMetrics() did not clear counters")
	}
}
