package stream

import (
	"context"
	"errors"
	"io"
	"os"
)

// copyBufferSize matches the pipe-sized chunking used for all pumps.
const copyBufferSize = 32 * 1024

// copyContext copies src into dst until EOF, a write error, or ctx
// cancellation. Cancellation is observed between chunks; a read blocked on a
// live pipe unblocks when the process side of the pipe is closed (the runner
// kills the process tree on cancellation for exactly this reason).
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err == io.EOF || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}
