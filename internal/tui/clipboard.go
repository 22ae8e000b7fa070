package tui

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// osc52Out receives the escape sequence when no system clipboard tool is
// available. The terminal is shared with Bubble Tea's renderer on stdout,
// so the sequence goes to stderr.
var osc52Out io.Writer = os.Stderr

// writeClipboard tries the system clipboard first, then asks the terminal
// to set it through OSC52 (which also works over ssh).
func writeClipboard(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case os.Getenv("STY") != "":
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(osc52Out)
	return err
}
