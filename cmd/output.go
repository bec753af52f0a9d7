package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/TheHighestBit/CoDriver/fs"
)

// PrintEntries writes entries to out, one per line, or as a JSON
// array if asJSON is set
func PrintEntries(out io.Writer, entries []fs.DirEntry, asJSON bool) error {
	if asJSON {
		if entries == nil {
			entries = []fs.DirEntry{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		size := fmt.Sprint(e.Size)
		name := e.Name
		if e.IsDir {
			size = "-"
			name += "/"
		}
		if _, err := fmt.Fprintf(out, "%9s %19s %s\n", size, e.LastModified, name); err != nil {
			return err
		}
	}
	return nil
}

// PrintSize writes info to out
func PrintSize(out io.Writer, info fs.SizeInfo, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(info)
	}
	_, err := fmt.Fprintf(out, "Total objects: %d\nTotal size: %s (%d Byte)\n", info.Count, fs.SizeSuffix(info.Size).ByteUnit(), info.Size)
	return err
}
