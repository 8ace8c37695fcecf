package tui

import "github.com/atotto/clipboard"

// ClipboardWriter copies text to the system clipboard.
type ClipboardWriter interface {
	WriteText(text string) error
}

// systemClipboard writes through the OS clipboard.
type systemClipboard struct{}

func (systemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}
