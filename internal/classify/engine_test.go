package classify

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestDefaultPolicy(t *testing.T) {
	engine := newTestEngine(t, Config{})
	ctx := context.Background()

	tests := []struct {
		domain string
		want   Category
	}{
		{"github.com", Productive},
		{"gist.github.com", Productive},
		{"docs.google.com", Productive},
		{"developer.mozilla.org", Productive},
		{"www.youtube.com", Distracting},
		{"old.reddit.com", Distracting},
		{"twitch.tv", Distracting},
		{"steamgaming.net", Distracting},
		{"entertainment.example.com", Distracting},
		{"news.ycombinator.com", Neutral},
		{"example.org", Neutral},
		{"GitHub.COM", Productive},
		// productive wins when both lists match
		{"github.com.game.example", Productive},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			if got := engine.Classify(ctx, tt.domain); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.domain, got, tt.want)
			}
		})
	}
}

func TestClassifyUsesCache(t *testing.T) {
	engine := newTestEngine(t, Config{CacheSize: 8})
	ctx := context.Background()

	first := engine.Classify(ctx, "youtube.com")
	if engine.cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", engine.cache.Len())
	}
	if second := engine.Classify(ctx, "youtube.com"); second != first {
		t.Fatalf("cached classification changed: %q != %q", second, first)
	}
}

const customPolicy = `package sitetime.classify

default category = "neutral"

category = "productive" {
	endswith(input.domain, ".internal")
}

category = "distracting" {
	input.domain == "github.com"
}
`

func writePolicy(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "classify.rego")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestCustomPolicyFile(t *testing.T) {
	path := writePolicy(t, t.TempDir(), customPolicy)
	engine := newTestEngine(t, Config{PolicyFile: path})
	ctx := context.Background()

	if got := engine.Classify(ctx, "wiki.internal"); got != Productive {
		t.Errorf("expected productive, got %q", got)
	}
	if got := engine.Classify(ctx, "github.com"); got != Distracting {
		t.Errorf("expected distracting, got %q", got)
	}
	if got := engine.Classify(ctx, "youtube.com"); got != Neutral {
		t.Errorf("expected neutral, got %q", got)
	}
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewEngine(Config{PolicyFile: filepath.Join(dir, "missing.rego")}, zerolog.Nop()); err == nil {
		t.Error("expected error for missing policy file")
	}

	path := writePolicy(t, dir, "package sitetime.classify\n\ncategory = {")
	if _, err := NewEngine(Config{PolicyFile: path}, zerolog.Nop()); err == nil {
		t.Error("expected error for unparseable policy")
	}
}

func TestUnknownCategoryIsNeutral(t *testing.T) {
	path := writePolicy(t, t.TempDir(), "package sitetime.classify\n\ncategory = \"fun\"\n")
	engine := newTestEngine(t, Config{PolicyFile: path})

	if got := engine.Classify(context.Background(), "example.com"); got != Neutral {
		t.Fatalf("expected neutral for unknown category, got %q", got)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, customPolicy)
	engine := newTestEngine(t, Config{PolicyFile: path})
	ctx := context.Background()

	if got := engine.Classify(ctx, "github.com"); got != Distracting {
		t.Fatalf("expected distracting before reload, got %q", got)
	}

	writePolicy(t, dir, "package sitetime.classify\n\ndefault category = \"productive\"\n")
	if err := engine.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := engine.Classify(ctx, "github.com"); got != Productive {
		t.Fatalf("expected cache purged and new policy applied, got %q", got)
	}

	// A broken policy keeps the previous one active.
	writePolicy(t, dir, "not rego at all {")
	if err := engine.Reload(); err == nil {
		t.Fatal("expected reload error for broken policy")
	}
	if got := engine.Classify(ctx, "example.com"); got != Productive {
		t.Fatalf("expected previous policy to remain, got %q", got)
	}
}

// TestReloadThreadSafety checks that reloads are safe alongside classification
func TestReloadThreadSafety(t *testing.T) {
	engine := newTestEngine(t, Config{CacheSize: 4})
	ctx := context.Background()

	var wg sync.WaitGroup
	done := make(chan struct{})
	domains := []string{"github.com", "youtube.com", "example.com", "reddit.com", "notion.so", "a.game.net"}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for n := offset; ; n++ {
				select {
				case <-done:
					return
				default:
					domain := domains[n%len(domains)]
					if got := engine.Classify(ctx, domain); !got.Valid() {
						t.Errorf("invalid category %q for %s", got, domain)
					}
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	for i := 0; i < 5; i++ {
		if err := engine.Reload(); err != nil {
			t.Errorf("reload %d failed: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(done)
	wg.Wait()
}
