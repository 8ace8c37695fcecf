package platform

import (
	"path/filepath"
	"testing"
)

// TestPathsForLinuxWithXDG verifies behavior for the covered scenario.
func TestPathsForLinuxWithXDG(t *testing.T) {
	p, err := PathsFor("linux", map[string]string{
		"XDG_CONFIG_HOME": "/xdg/config",
		"XDG_DATA_HOME":   "/xdg/data",
		"XDG_STATE_HOME":  "/xdg/state",
	}, Bases{Home: "/home/me", Config: "/fallback/config", Data: "/fallback/data"}, "taskdeck")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join("/xdg/config", "taskdeck", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join("/xdg/data", "taskdeck", "session.db"); p.SessionPath != want {
		t.Fatalf("unexpected session path %q", p.SessionPath)
	}
	if want := filepath.Join("/xdg/state", "taskdeck"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

// TestPathsForLinuxHomeDefaults verifies behavior for the covered scenario.
func TestPathsForLinuxHomeDefaults(t *testing.T) {
	p, err := PathsFor("linux", nil, Bases{Home: "/home/me", Config: "/home/me/.config", Data: "/home/me/.config"}, "taskdeck")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join("/home/me", ".local", "share", "taskdeck"); p.DataDir != want {
		t.Fatalf("unexpected data dir %q", p.DataDir)
	}
	if want := filepath.Join("/home/me", ".local", "state", "taskdeck"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

// TestPathsForWindowsUsesAppData verifies behavior for the covered scenario.
func TestPathsForWindowsUsesAppData(t *testing.T) {
	p, err := PathsFor("windows", map[string]string{
		"APPDATA":      `C:\Users\me\AppData\Roaming`,
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}, Bases{Config: `C:\fallback\config`, Data: `C:\fallback\data`}, "taskdeck")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Roaming`, "taskdeck", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Local`, "taskdeck", "session.db"); p.SessionPath != want {
		t.Fatalf("unexpected session path %q", p.SessionPath)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Local`, "taskdeck", "logs"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

// TestPathsForDarwinIgnoresXDG verifies behavior for the covered scenario.
func TestPathsForDarwinIgnoresXDG(t *testing.T) {
	base := "/Users/me/Library/Application Support"
	p, err := PathsFor("darwin", map[string]string{"XDG_CONFIG_HOME": "/ignored"}, Bases{Home: "/Users/me", Config: base, Data: base}, "taskdeck")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(base, "taskdeck", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join(base, "taskdeck"); p.DataDir != want {
		t.Fatalf("unexpected data dir %q", p.DataDir)
	}
	if want := filepath.Join("/Users/me", "Library", "Logs", "taskdeck"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

// TestPathsForRejectsEmptyInput verifies behavior for the covered scenario.
func TestPathsForRejectsEmptyInput(t *testing.T) {
	if _, err := PathsFor("darwin", nil, Bases{Data: "/tmp/data"}, "taskdeck"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, Bases{Config: "/cfg", Data: "/data"}, " "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

// TestDefaultPathsWithOptionsDevMode verifies behavior for the covered scenario.
func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "taskdeck-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DataDir) != "taskdeck-dev" {
		t.Fatalf("expected dev data dir, got %q", p.DataDir)
	}
}
