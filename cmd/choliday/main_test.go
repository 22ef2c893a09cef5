package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

const testCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//choliday//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"SUMMARY:National Day Holiday\r\n" +
	"DTSTART;VALUE=DATE:20251001\r\n" +
	"DTEND;VALUE=DATE:20251001\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"SUMMARY:Makeup Work\r\n" +
	"DTSTART;VALUE=DATE:20250928\r\n" +
	"DTEND;VALUE=DATE:20250928\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cal := filepath.Join(dir, "cal.ics")
	if err := os.WriteFile(cal, []byte(testCalendar), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := "calendar:\n" +
		"  source:\n" +
		"    - " + cal + "\n" +
		"    - " + filepath.Join(dir, "missing.ics") + "\n" +
		"predict:\n" +
		"  work: [\"Work\"]\n" +
		"  rest: [\"Holiday\"]\n" +
		"  priority: WorkOverRest\n" +
		"log:\n" +
		"  level: error\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	cfgPath := writeFixture(t)

	tests := []struct {
		name     string
		date     string
		wantOut  string
		wantCode int
	}{
		{"holiday on wednesday", "20251001", "false", exitRest},
		{"makeup work on sunday", "20250928", "true", exitWork},
		{"plain thursday", "20251002", "true", exitWork},
		{"plain saturday", "20251004", "false", exitRest},
		{"datetime form", "20251001093000", "false", exitRest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := exitWork
			cmd := rootCmd(viper.New(), &code)
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"-c", cfgPath, "-d", tt.date})

			if err := cmd.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.wantOut {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestRootCommand_Errors(t *testing.T) {
	cfgPath := writeFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad date", []string{"-c", cfgPath, "-d", "someday"}},
		{"missing config", []string{"-c", filepath.Join(t.TempDir(), "none.yaml"), "-d", "20251001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := exitWork
			cmd := rootCmd(viper.New(), &code)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			if err := cmd.ExecuteContext(context.Background()); err == nil {
				t.Error("Execute() error = nil, want error")
			}
		})
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	v := viper.New()
	code := exitWork
	root := rootCmd(v, &code)
	root.AddCommand(initCmd(v))
	root.SetOut(&bytes.Buffer{})

	root.SetArgs([]string{"init", "-c", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	root.SetArgs([]string{"init", "-c", path})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("second init error = nil, want refusal to overwrite")
	}
}
