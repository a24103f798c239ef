package pipeline

import (
	"fmt"

	"github.com/dmitrijs2005/imgseal/internal/common"
)

// FileError reports a failure to read, encrypt or store one input file.
// It matches common.ErrFileEncryption with errors.Is and unwraps to the
// underlying cause.
type FileError struct {
	Key  string
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s %s (key %s): %v", common.ErrFileEncryption, e.Op, e.Path, e.Key, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{common.ErrFileEncryption, e.Err}
}
