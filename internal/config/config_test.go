package config

import (
	"strings"
	"testing"
	"time"
)

func setSheetsEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("SINK", "sheets")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", `{"type":"service_account"}`)
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("TIMEZONE", "Asia/Tashkent")
}

func TestParseDefaults(t *testing.T) {
	setSheetsEnv(t)

	cfg, err := parse()
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if cfg.BotToken != "123:abc" {
		t.Fatalf("unexpected token %q", cfg.BotToken)
	}
	if cfg.SpreadsheetName != "Talabalar Qabuli" {
		t.Fatalf("unexpected spreadsheet name %q", cfg.SpreadsheetName)
	}
	if cfg.SinkTimeout != 15*time.Second {
		t.Fatalf("unexpected sink timeout %s", cfg.SinkTimeout)
	}
	if cfg.Location().String() != "Asia/Tashkent" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
}

func TestParseLegacyToken(t *testing.T) {
	setSheetsEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TOKEN", "legacy:token")

	cfg, err := parse()
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if cfg.BotToken != "legacy:token" {
		t.Fatalf("expected BOT_TOKEN fallback, got %q", cfg.BotToken)
	}
}

func TestParseAdminChatIDs(t *testing.T) {
	setSheetsEnv(t)
	t.Setenv("ADMIN_CHAT_IDS", "100,-200")

	cfg, err := parse()
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(cfg.AdminChatIDs) != 2 || cfg.AdminChatIDs[0] != 100 || cfg.AdminChatIDs[1] != -200 {
		t.Fatalf("unexpected admin chat ids %v", cfg.AdminChatIDs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing token",
			env:  map[string]string{"TELEGRAM_TOKEN": "", "BOT_TOKEN": ""},
			want: "TELEGRAM_TOKEN is required",
		},
		{
			name: "missing credentials",
			env:  map[string]string{"GOOGLE_CREDENTIALS_JSON": ""},
			want: "GOOGLE_CREDENTIALS_JSON is required",
		},
		{
			name: "postgres without user",
			env:  map[string]string{"SINK": "postgres", "DB_USER": "", "DB_PASSWORD": "x", "DB_NAME": "y"},
			want: "DB_USER, DB_PASSWORD, DB_NAME are required",
		},
		{
			name: "unknown sink",
			env:  map[string]string{"SINK": "excel"},
			want: `unknown SINK "excel"`,
		},
		{
			name: "unknown session store",
			env:  map[string]string{"SESSION_STORE": "redis"},
			want: `unknown SESSION_STORE "redis"`,
		},
		{
			name: "bad timezone",
			env:  map[string]string{"TIMEZONE": "Mars/Olympus"},
			want: "invalid TIMEZONE",
		},
		{
			name: "bad duration",
			env:  map[string]string{"SINK_TIMEOUT": "soon"},
			want: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSheetsEnv(t)
			t.Setenv("BOT_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
			if !strings.HasPrefix(err.Error(), "config.Load:") {
				t.Fatalf("expected config.Load prefix, got %v", err)
			}
		})
	}
}

func TestParseSQLite(t *testing.T) {
	setSheetsEnv(t)
	t.Setenv("SINK", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/regs.db")

	cfg, err := parse()
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if cfg.Sink != SinkSQLite {
		t.Fatalf("expected normalized sink, got %q", cfg.Sink)
	}
}
