// Show upload progress

package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/TheHighestBit/CoDriver/fs"
)

// printProgress returns a progress callback which rewrites a single
// status line on out for each remote being uploaded
func printProgress(out io.Writer) fs.ProgressFn {
	var mu sync.Mutex
	return func(remote string, transferred, total int64) {
		mu.Lock()
		defer mu.Unlock()
		percent := 100
		if total > 0 {
			percent = int(transferred * 100 / total)
		}
		_, _ = fmt.Fprintf(out, "\r%s: %v / %v, %d%%", remote, fs.SizeSuffix(transferred).ByteUnit(), fs.SizeSuffix(total).ByteUnit(), percent)
		if transferred >= total {
			_, _ = fmt.Fprintln(out)
		}
	}
}
