package codeexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

type memCache struct {
	mu sync.Mutex
	m  map[string]Result
}

func (c *memCache) Get(_ context.Context, key string) (Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	return r, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
	return nil
}

func TestRunForwardsRequest(t *testing.T) {
	var got executeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"output":"hi\n","statusCode":200,"memory":"7680","cpuTime":0.02}`))
	}))
	defer srv.Close()

	e := New(srv.URL, "id", "secret")
	res, err := e.Run(context.Background(), Request{Code: "print('hi')", Language: "python", Input: "x"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := executeRequest{Script: "print('hi')", Language: "python3", Stdin: "x", VersionIndex: "0", ClientID: "id", ClientSecret: "secret"}
	if got != want {
		t.Errorf("provider request = %+v, want %+v", got, want)
	}
	if res.Output != "hi\n" || res.StatusCode != 200 || res.Memory != "7680" || res.CPUTime != "0.02" {
		t.Errorf("result = %+v", res)
	}
}

func TestRunLanguageMapping(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"java", "java"},
		{"python", "python3"},
		{"cpp17", "cpp17"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			var lang string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req executeRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				lang = req.Language
				w.Write([]byte(`{"output":"","statusCode":200}`))
			}))
			defer srv.Close()

			if _, err := New(srv.URL, "", "").Run(context.Background(), Request{Code: "x", Language: tt.tag}); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if lang != tt.want {
				t.Errorf("provider language = %q, want %q", lang, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	if _, err := New("http://unused", "", "").Run(context.Background(), Request{Code: "x", Language: "rust"}); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("unsupported language: err = %v", err)
	}

	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized Request"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"error body", http.StatusOK, `{"error":"Daily limit reached"}`},
		{"bad json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "", "").Run(context.Background(), Request{Code: "x", Language: "java"})
			if !errors.Is(err, ErrTransport) {
				t.Errorf("err = %v, want ErrTransport", err)
			}
		})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	if _, err := New(srv.URL, "", "").Run(context.Background(), Request{Code: "x", Language: "java"}); !errors.Is(err, ErrTransport) {
		t.Errorf("closed server: err = %v, want ErrTransport", err)
	}
}

func TestRunUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"output":"42","statusCode":200}`))
	}))
	defer srv.Close()

	e := New(srv.URL, "", "", WithCache(&memCache{m: map[string]Result{}}))
	req := Request{Code: "print(42)", Language: "python", Cache: true}

	first, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("provider called %d times, want 1", hits.Load())
	}
	if first.Cached || !second.Cached || second.Output != "42" {
		t.Errorf("first = %+v, second = %+v", first, second)
	}

	req.Input = "different stdin"
	if _, err := e.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("different stdin served from cache")
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(Request{Code: "ab", Language: "java", Input: "c"})
	b := CacheKey(Request{Code: "a", Language: "java", Input: "bc"})
	if a == b {
		t.Error("field boundaries not part of the key")
	}
	if a != CacheKey(Request{Code: "ab", Language: "java", Input: "c"}) {
		t.Error("key not stable")
	}
}

func TestRunSkipsCacheUnlessAsked(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		fmt.Fprintf(w, `{"output":"%d","statusCode":200}`, n)
	}))
	defer srv.Close()

	cache := &memCache{m: map[string]Result{}}
	e := New(srv.URL, "", "", WithCache(cache))
	req := Request{Code: "import random; print(random.random())", Language: "python"}

	first, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 || first.Output == second.Output || second.Cached {
		t.Errorf("uncached runs: hits = %d, first = %+v, second = %+v", hits.Load(), first, second)
	}
	if len(cache.m) != 0 {
		t.Errorf("uncached run stored %d results", len(cache.m))
	}
}
