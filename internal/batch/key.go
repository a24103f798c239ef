package batch

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/cryptox"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// resolveKey decodes hexKey, or prompts for it on w without echo when it is
// empty and stdin is a terminal.
func resolveKey(hexKey string, w io.Writer) ([]byte, error) {
	if hexKey != "" {
		return cryptox.ParseHexKey(hexKey)
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return nil, fmt.Errorf("%w: hex key is required (HEX_KEY or -k)", common.ErrInvalidConfig)
	}

	if _, err := fmt.Fprint(w, "Enter hex key: "); err != nil {
		return nil, err
	}
	raw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	defer cryptox.Wipe(raw)

	return cryptox.ParseHexKey(string(raw))
}
