package sdk

import (
	"strings"
	"testing"

	"github.com/serverdeck/serverdeck-go/internal/config"
	"github.com/serverdeck/serverdeck-go/internal/stream"
)

func testClientConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Agent.Origin = "https://deck01.example.com"
	cfg.Agent.APIKey = "k-123"
	return cfg
}

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		c, err := New(testClientConfig(), nil)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if c.REST() == nil {
			t.Error("REST() should not be nil")
		}
		if c.Endpoints() == nil {
			t.Error("Endpoints() should not be nil")
		}
	})

	t.Run("bad origin", func(t *testing.T) {
		cfg := testClientConfig()
		cfg.Agent.Origin = "not a url"
		if _, err := New(cfg, nil); err == nil {
			t.Error("expected error for bad origin")
		}
	})
}

func TestTerminal(t *testing.T) {
	c, err := New(testClientConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	size := &stream.TerminalSize{Cols: 80, Rows: 24}
	ts, err := c.Terminal("/home/ops", size)
	if err != nil {
		t.Fatalf("Terminal failed: %v", err)
	}
	defer ts.Close()

	if got := ts.State(); got != stream.StateConnecting {
		t.Errorf("initial State = %v, want connecting", got)
	}
	if cached, ok := ts.Size(); !ok || cached != *size {
		t.Errorf("Size() = %+v %v, want cached 80x24", cached, ok)
	}
}

func TestTerminalURL(t *testing.T) {
	c, err := New(testClientConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// The builder output is covered elsewhere; here we only care that the
	// terminal URL carries the session parameters and the credential.
	url := c.Endpoints().WSURL("/terminal", nil)
	if !strings.HasPrefix(url, "wss://deck01.example.com/api/terminal") {
		t.Errorf("terminal URL = %q", url)
	}
	if !strings.Contains(url, "api_key=k-123") {
		t.Errorf("terminal URL %q missing credential", url)
	}
}

func TestStats(t *testing.T) {
	c, err := New(testClientConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ss, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	defer ss.Close()

	if got := ss.State(); got != stream.StateConnecting {
		t.Errorf("initial State = %v, want connecting", got)
	}
}
