package pdfinspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrEmpty = errors.New("pdf content is empty")

type Info struct {
	Pages   int
	Preview string
}

// Inspect reads the page count and the first previewLen runes of plain text.
// A PDF without extractable text yields an empty preview and no error.
func Inspect(content []byte, previewLen int) (info *Info, err error) {
	if len(content) == 0 {
		return nil, ErrEmpty
	}
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("read pdf failed: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	info = &Info{Pages: reader.NumPage()}
	if previewLen <= 0 {
		return info, nil
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return info, nil
	}
	raw, err := io.ReadAll(io.LimitReader(plain, int64(previewLen)*4))
	if err != nil {
		return info, nil
	}
	text := []rune(strings.Join(strings.Fields(string(raw)), " "))
	if len(text) > previewLen {
		text = text[:previewLen]
	}
	info.Preview = string(text)
	return info, nil
}
