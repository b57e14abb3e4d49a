package ollama

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
	var gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotReq)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":"{\"entities\":[{\"word\":\"主成分分析\",\"entity_group\":\"MISC\"}]}"},"done":true,"prompt_eval_count":10,"eval_count":5}`)
	}))
	defer srv.Close()

	client, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		Model:   "m",
		BaseURL: srv.URL,
		ApiKey:  "secret",
	})
	if err != nil {
		t.Fatalf("NewGraphOllamaClient() error = %v", err)
	}

	var out entityList
	if err := client.GenerateCompletionWithFormat(context.Background(), "entities", "ner", "主成分分析是降维方法的一种。", &out); err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Entities) != 1 || out.Entities[0].Word != "主成分分析" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if _, ok := gotReq["format"]; !ok {
		t.Error("request did not carry a format schema")
	}
	if m := client.GetMetrics(); m.TotalTokens != 15 || m.Requests != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestGenerateCompletionWithFormatRejectsNonPointer(t *testing.T) {
	client, err := NewGraphOllamaClient(NewGraphOllamaClientParams{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}
	var out entityList
	if err := client.GenerateCompletionWithFormat(context.Background(), "n", "d", "p", out); err == nil {
		t.Fatal("expected error for non-pointer output")
	}
}
