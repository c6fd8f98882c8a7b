package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

func TestBuildSuggestSystemPrompt(t *testing.T) {
	q := model.ForumQuestion{
		Name:                 "Segfault",
		Description:          "My program crashes",
		ProgrammingLanguages: []string{"C", "C++"},
		Comments: []model.Comment{
			{Description: "Check for NULL", Code: "if (p == NULL) return;"},
		},
	}

	t.Run("with replies", func(t *testing.T) {
		prompt := buildSuggestSystemPrompt(q)
		if !strings.Contains(prompt, "C, C++") {
			t.Error("prompt should list languages")
		}
		if !strings.Contains(prompt, "1. Check for NULL") {
			t.Error("prompt should contain earlier replies")
		}
		if !strings.Contains(prompt, "if (p == NULL) return;") {
			t.Error("prompt should contain reply code")
		}
	})

	t.Run("no replies", func(t *testing.T) {
		prompt := buildSuggestSystemPrompt(model.ForumQuestion{Name: "x"})
		if strings.Contains(prompt, "REPLIES ALREADY POSTED") {
			t.Error("prompt should not contain replies section when empty")
		}
		if strings.Contains(prompt, "LANGUAGES") {
			t.Error("prompt should not contain languages section when empty")
		}
	})
}

func TestBuildQuestionMessage(t *testing.T) {
	msg := buildQuestionMessage(model.ForumQuestion{Name: "NPE", Description: "null", ErrorCode: "java.lang.NullPointerException"})
	if !strings.Contains(msg, "TITLE: NPE") || !strings.Contains(msg, "NullPointerException") {
		t.Errorf("unexpected message %q", msg)
	}
	if strings.Contains(msg, "NOTES") {
		t.Error("message should not contain notes section when empty")
	}
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSuggestAnswer(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", `{"answer":"Initialize the pointer","code":"int *p = &x;"}`, false},
		{"not json", `sure, here is an answer`, true},
		{"empty answer", `{"answer":"  "}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content)
			c := New(srv.URL+"/v1", "key", "test-model")

			s, err := c.SuggestAnswer(context.Background(), model.ForumQuestion{Name: "Segfault", Description: "crash"})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("SuggestAnswer: %v", err)
			}
			if s.Answer != "Initialize the pointer" || s.Code != "int *p = &x;" {
				t.Errorf("suggestion = %+v", s)
			}
		})
	}
}
