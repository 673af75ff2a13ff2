package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// CopyToClipboard writes the content to the terminal clipboard using OSC52.
// Inside tmux the sequence must ride a DCS passthrough envelope or the
// multiplexer eats it. The writer defaults to stdout when nil.
func CopyToClipboard(content string, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	seq := fmt.Sprintf("\u001b]52;c;%s\u0007", base64.StdEncoding.EncodeToString([]byte(content)))
	if os.Getenv("TMUX") != "" {
		seq = "\u001bPtmux;" + strings.ReplaceAll(seq, "\u001b", "\u001b\u001b") + "\u001b\\"
	}
	_, err := io.WriteString(w, seq)
	return err
}
