package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides the configurable list bindings. Blank fields keep defaults.
type KeyConfig struct {
	Search     string
	Tags       string
	ClearAll   string
	Reload     string
	ToggleMine string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	prevPage      key.Binding
	nextPage      key.Binding
	pageButton    key.Binding
	pageSize      key.Binding
	search        key.Binding
	tags          key.Binding
	dueRange      key.Binding
	cycleStatus   key.Binding
	cyclePriority key.Binding
	toggleMine    key.Binding
	sortField     key.Binding
	sortDirection key.Binding
	clearAll      key.Binding
	taskInfo      key.Binding
	copyID        key.Binding
	back          key.Binding
	submit        key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		prevPage:      key.NewBinding(key.WithKeys("[", "h", "left"), key.WithHelp("[/←", "prev page")),
		nextPage:      key.NewBinding(key.WithKeys("]", "l", "right"), key.WithHelp("]/→", "next page")),
		pageButton:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "page button")),
		pageSize:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "page size")),
		search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		tags:          key.NewBinding(key.WithKeys("#"), key.WithHelp("#", "tags")),
		dueRange:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "due range")),
		cycleStatus:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		cyclePriority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		toggleMine:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "only mine")),
		sortField:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort field")),
		sortDirection: key.NewBinding(key.WithKeys("O", "shift+o"), key.WithHelp("O", "sort direction")),
		clearAll:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		taskInfo:      key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "task info")),
		copyID:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		submit:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	}
}

// applyConfig rebinds the configurable keys.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.search, cfg.Search, "/", "search")
	configureBinding(&k.tags, cfg.Tags, "#", "tags")
	configureBinding(&k.clearAll, cfg.ClearAll, "c", "clear filters")
	configureBinding(&k.reload, cfg.Reload, "r", "reload")
	configureBinding(&k.toggleMine, cfg.ToggleMine, "m", "only mine")
}

// configureBinding replaces one binding's keys and help text.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher strings and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.search, k.tags, k.cycleStatus, k.cyclePriority, k.toggleMine, k.sortField, k.prevPage, k.nextPage, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.tags, k.dueRange, k.cycleStatus, k.cyclePriority, k.toggleMine, k.clearAll},
		{k.sortField, k.sortDirection, k.prevPage, k.nextPage, k.pageButton, k.pageSize},
		{k.moveUp, k.moveDown, k.taskInfo, k.copyID, k.reload, k.toggleHelp, k.quit},
	}
}
