package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"bot": {"name": "Bot", "appId": "app-1"},
		"ingress": {"port": 4000}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.Name != "Bot" || cfg.Bot.AppID != "app-1" {
		t.Errorf("bot config not loaded: %+v", cfg.Bot)
	}
	if cfg.Ingress.Port != 4000 {
		t.Errorf("expected port 4000, got %d", cfg.Ingress.Port)
	}
	// Untouched fields keep defaults.
	if cfg.Ingress.MessagesPath != "/api/messages" {
		t.Errorf("default messages path lost: %q", cfg.Ingress.MessagesPath)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "bot:\n  name: Bot\n  appId: app-1\ningress:\n  port: 4100\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.Name != "Bot" || cfg.Ingress.Port != 4100 {
		t.Errorf("yaml config not loaded: %+v", cfg)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEAMSBOT_TEST_APPID", "env-app")
	path := writeFile(t, "config.json", `{
		"bot": {"name": "Bot", "appId": "${TEAMSBOT_TEST_APPID}", "appPassword": "${TEAMSBOT_TEST_MISSING:-fallback}"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.AppID != "env-app" {
		t.Errorf("expected env value, got %q", cfg.Bot.AppID)
	}
	if cfg.Bot.AppPassword != "fallback" {
		t.Errorf("expected default value, got %q", cfg.Bot.AppPassword)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := Defaults()
	cfg.Bot.Name = ""
	cfg.Bot.AppType = "wrong"
	cfg.Ingress.Port = 70000
	cfg.Journal.Enabled = true
	cfg.Journal.DBPath = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"bot.name", "bot.appType", "ingress.port", "journal.dbPath"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in validation error, got %v", want, err)
		}
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestExpandEnvVars_KeepsUnknown(t *testing.T) {
	got := ExpandEnvVars("x ${TEAMSBOT_DEFINITELY_UNSET} y")
	if got != "x ${TEAMSBOT_DEFINITELY_UNSET} y" {
		t.Errorf("unset var without default must stay literal, got %q", got)
	}
}

func TestGetByPath(t *testing.T) {
	cfg := Defaults()
	cfg.Bot.Name = "Bot"
	val, err := GetByPath(cfg, "bot.name")
	if err != nil {
		t.Fatal(err)
	}
	if val != "Bot" {
		t.Errorf("expected Bot, got %v", val)
	}
	if _, err := GetByPath(cfg, "bot.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "ingress.port", "4242"); err != nil {
		t.Fatal(err)
	}
	if cfg.Ingress.Port != 4242 {
		t.Errorf("expected 4242, got %d", cfg.Ingress.Port)
	}
	if err := SetByPath(cfg, "ingress.websocket", "true"); err != nil {
		t.Fatal(err)
	}
	if !cfg.Ingress.WebSocket {
		t.Error("expected websocket enabled")
	}
}

func TestSanitize(t *testing.T) {
	cfg := Defaults()
	cfg.Bot.AppPassword = "super-secret-value"
	out := Sanitize(cfg)
	if out.Bot.AppPassword == cfg.Bot.AppPassword {
		t.Error("password must be masked")
	}
	if cfg.Bot.AppPassword != "super-secret-value" {
		t.Error("original config must not be mutated")
	}
}
