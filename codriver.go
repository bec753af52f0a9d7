// Work with Google Drive using gdrive: paths
package main

import (
	"github.com/TheHighestBit/CoDriver/cmd"
	_ "github.com/TheHighestBit/CoDriver/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
