// Package platform resolves per-user config, data and log locations.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName is the default directory name for taskdeck files.
const AppName = "taskdeck"

// Paths lists the files and directories taskdeck reads and writes.
type Paths struct {
	ConfigPath  string
	DataDir     string
	SessionPath string
	LogDir      string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// Bases are the per-user base directories before the app name is appended.
type Bases struct {
	Home   string
	Config string
	Data   string
}

// DefaultPaths returns the paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: AppName})
}

// DefaultPathsWithOptions resolves the current user's base dirs and derives app paths from them.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = AppName
	}
	if opts.DevMode {
		appName += "-dev"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user home dir: %w", err)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	env := map[string]string{}
	for _, name := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "XDG_STATE_HOME", "APPDATA", "LOCALAPPDATA"} {
		env[name] = strings.TrimSpace(os.Getenv(name))
	}
	return PathsFor(runtime.GOOS, env, Bases{Home: home, Config: configDir, Data: configDir}, appName)
}

// PathsFor derives app paths for goos. XDG and AppData variables override bases where
// that OS honors them; logs follow the OS convention for per-user state.
func PathsFor(goos string, env map[string]string, bases Bases, appName string) (Paths, error) {
	if bases.Config == "" || bases.Data == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := bases.Config, bases.Data
	logDir := ""
	switch goos {
	case "linux":
		if bases.Home != "" {
			dataBase = filepath.Join(bases.Home, ".local", "share")
		}
		if v := env["XDG_CONFIG_HOME"]; v != "" {
			configBase = v
		}
		if v := env["XDG_DATA_HOME"]; v != "" {
			dataBase = v
		}
		switch {
		case env["XDG_STATE_HOME"] != "":
			logDir = filepath.Join(env["XDG_STATE_HOME"], appName)
		case bases.Home != "":
			logDir = filepath.Join(bases.Home, ".local", "state", appName)
		}
	case "darwin":
		if bases.Home != "" {
			logDir = filepath.Join(bases.Home, "Library", "Logs", appName)
		}
	case "windows":
		if v := env["APPDATA"]; v != "" {
			configBase = v
		}
		if v := env["LOCALAPPDATA"]; v != "" {
			dataBase = v
		}
	}

	appDataDir := filepath.Join(dataBase, appName)
	if logDir == "" {
		logDir = filepath.Join(appDataDir, "logs")
	}
	return Paths{
		ConfigPath:  filepath.Join(configBase, appName, "config.toml"),
		DataDir:     appDataDir,
		SessionPath: filepath.Join(appDataDir, "session.db"),
		LogDir:      logDir,
	}, nil
}
