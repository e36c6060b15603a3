package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithQuerySuffix(t *testing.T) {
	const suffix = "in the context of Zomato"
	tests := []struct {
		name      string
		utterance string
		want      string
	}{
		{"appends when absent", "hello", "hello in the context of Zomato"},
		{"keeps when present", "revenue in the context of Zomato please", "revenue in the context of Zomato please"},
		{"case sensitive", "hello IN THE CONTEXT OF ZOMATO", "hello IN THE CONTEXT OF ZOMATO in the context of Zomato"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithQuerySuffix(tt.utterance, suffix); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := WithQuerySuffix("hello", ""); got != "hello" {
		t.Errorf("empty suffix: got %q", got)
	}
}

func TestQuerySendsBody(t *testing.T) {
	var gotBody Request
	var gotMethod, gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":[
			{"message":"Revenue grew 56%."},
			{"chart":"const config = {};"},
			{"metadata":{"source_documents":[{"pages":[12,4,9]}]}}
		]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "in the context of Zomato", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Query(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method: got %s", gotMethod)
	}
	if gotType != "application/json" {
		t.Errorf("content type: got %s", gotType)
	}
	if gotBody.Query != "hello in the context of Zomato" {
		t.Errorf("query body: got %q", gotBody.Query)
	}
	if len(resp.Response) != 3 {
		t.Fatalf("items: got %d", len(resp.Response))
	}
	sources := resp.Sources()
	if len(sources) != 1 || len(sources[0].Pages) != 3 {
		t.Errorf("sources: got %+v", sources)
	}
}

func TestQueryStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"vector store unavailable"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Query(context.Background(), "hello")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("code: got %d", statusErr.Code)
	}
	if statusErr.Message != "vector store unavailable" {
		t.Errorf("message: got %q", statusErr.Message)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("status errors are not transport errors")
	}
}

func TestQueryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, "", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Query(context.Background(), "hello"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	if _, err := NewClient("not a url", "", 0); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}
