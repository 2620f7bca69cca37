package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"termcore/internal/vt"
)

const readSize = 4096

// Pump copies src into term until src ends or ctx is done, mirroring every
// chunk to out when out is non-nil. A Read already blocked is not
// interrupted by ctx; close src to stop it.
func Pump(ctx context.Context, src io.Reader, term *vt.Terminal, out io.Writer) error {
	buf := make([]byte, readSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := src.Read(buf)
		if n > 0 {
			feed(term, buf[:n])
			if out != nil {
				if _, werr := out.Write(buf[:n]); werr != nil {
					return fmt.Errorf("mirror output: %w", werr)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || isHangup(err) {
				return nil
			}
			return fmt.Errorf("read shell output: %w", err)
		}
	}
}

func feed(term *vt.Terminal, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[shell] error feeding %d bytes to terminal: %v", len(data), r)
		}
	}()
	term.ProcessInput(data)
}
