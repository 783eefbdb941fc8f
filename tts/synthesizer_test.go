package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func storeFor(srv *httptest.Server) *PromptStore {
	return &PromptStore{
		httpClient: srv.Client(),
		host:       srv.URL,
		publicKey:  "pk",
		secretKey:  "sk",
	}
}

func TestGetPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/public/v2/prompts/tts-instructions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "pk" || pass != "sk" {
			t.Error("basic auth credentials not sent")
		}
		w.Write([]byte(`{"name":"tts-instructions","prompt":"Speak slowly."}`))
	}))
	defer srv.Close()

	got, err := storeFor(srv).GetPrompt(context.Background(), "tts-instructions")
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if got != "Speak slowly." {
		t.Errorf("prompt = %q", got)
	}
}

func TestGetPromptErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/public/v2/prompts/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/api/public/v2/prompts/empty":
			w.Write([]byte(`{"name":"empty","prompt":""}`))
		}
	}))
	defer srv.Close()

	store := storeFor(srv)
	if _, err := store.GetPrompt(context.Background(), "missing"); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := store.GetPrompt(context.Background(), "empty"); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestNewPromptStoreUnconfigured(t *testing.T) {
	t.Setenv("LANGFUSE_PUBLIC_KEY", "")
	t.Setenv("LANGFUSE_SECRET_KEY", "")
	if store := NewPromptStore(); store != nil {
		t.Error("expected nil store without credentials")
	}
}

func TestDeliveryInstructionsFallback(t *testing.T) {
	// No store configured: the built-in default applies.
	c := New("gpt-4o-mini-tts", "sage", "tts-instructions", nil, zerolog.Nop())
	if got := c.deliveryInstructions(context.Background()); got != fallbackInstructions {
		t.Errorf("instructions = %q, want fallback", got)
	}
}

func TestDeliveryInstructionsFetchedOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"name":"tts-instructions","prompt":"Read like a newscaster."}`))
	}))
	defer srv.Close()

	c := New("gpt-4o-mini-tts", "sage", "tts-instructions", storeFor(srv), zerolog.Nop())
	for i := 0; i < 3; i++ {
		if got := c.deliveryInstructions(context.Background()); got != "Read like a newscaster." {
			t.Fatalf("instructions = %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("prompt fetched %d times, want 1", calls)
	}
}

func TestDeliveryInstructionsStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("gpt-4o-mini-tts", "sage", "tts-instructions", storeFor(srv), zerolog.Nop())
	if got := c.deliveryInstructions(context.Background()); got != fallbackInstructions {
		t.Errorf("instructions = %q, want fallback after store failure", got)
	}
}

func TestSynthesizeRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := New("gpt-4o-mini-tts", "sage", "", nil, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Synthesize(ctx, "hello", t.TempDir()+"/out.mp3"); err == nil {
		t.Error("expected error without OPENAI_API_KEY")
	}
}
