package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
)

// TestParseBindingKeys verifies key parsing behavior for configured overrides.
func TestParseBindingKeys(t *testing.T) {
	t.Run("space aliases", func(t *testing.T) {
		keys, help := parseBindingKeys("space", ".")
		if len(keys) != 2 || keys[0] != " " || keys[1] != "space" {
			t.Fatalf("unexpected parsed space keys %#v", keys)
		}
		if help != "space" {
			t.Fatalf("unexpected space help text %q", help)
		}
	})

	t.Run("uppercase rune includes shift alias", func(t *testing.T) {
		keys, help := parseBindingKeys("M", "m")
		if len(keys) != 2 || keys[0] != "M" || keys[1] != "shift+m" {
			t.Fatalf("unexpected uppercase parsed keys %#v", keys)
		}
		if help != "M" {
			t.Fatalf("unexpected uppercase help text %q", help)
		}
	})

	t.Run("multi rune lowercases key matcher", func(t *testing.T) {
		keys, help := parseBindingKeys("Ctrl+R", "r")
		if len(keys) != 1 || keys[0] != "ctrl+r" {
			t.Fatalf("unexpected multi-rune parsed keys %#v", keys)
		}
		if help != "Ctrl+R" {
			t.Fatalf("unexpected multi-rune help text %q", help)
		}
	})

	t.Run("blank uses fallback", func(t *testing.T) {
		keys, help := parseBindingKeys("  ", "/")
		if len(keys) != 1 || keys[0] != "/" {
			t.Fatalf("unexpected fallback parsed keys %#v", keys)
		}
		if help != "/" {
			t.Fatalf("unexpected fallback help text %q", help)
		}
	})
}

// TestConfigureBinding verifies binding override application behavior.
func TestConfigureBinding(t *testing.T) {
	b := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "old"))
	configureBinding(&b, "g", "r", "reload")
	keys := b.Keys()
	if len(keys) != 1 || keys[0] != "g" {
		t.Fatalf("unexpected configured keys %#v", keys)
	}
	if b.Help().Key != "g" || b.Help().Desc != "reload" {
		t.Fatalf("unexpected configured help %#v", b.Help())
	}
}

// TestKeyMapApplyConfig verifies dynamic key map override behavior.
func TestKeyMapApplyConfig(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{
		Search:     "f",
		Tags:       "t",
		ClearAll:   "X",
		ToggleMine: "space",
	})

	assertKeys := func(name string, binding key.Binding, expected ...string) {
		t.Helper()
		got := binding.Keys()
		if len(got) != len(expected) {
			t.Fatalf("%s key count mismatch got=%#v expected=%#v", name, got, expected)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("%s key mismatch got=%#v expected=%#v", name, got, expected)
			}
		}
	}

	assertKeys("search", k.search, "f")
	assertKeys("tags", k.tags, "t")
	assertKeys("clear all", k.clearAll, "X", "shift+x")
	assertKeys("reload", k.reload, "r")
	assertKeys("only mine", k.toggleMine, " ", "space")
}

// TestKeyMapHelpCoversBindings verifies the help groups expose the list bindings.
func TestKeyMapHelpCoversBindings(t *testing.T) {
	k := newKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
	total := 0
	for _, group := range k.FullHelp() {
		total += len(group)
	}
	if total < len(k.ShortHelp()) {
		t.Fatalf("full help smaller than short help: %d", total)
	}
}
