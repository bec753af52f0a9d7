// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/TheHighestBit/CoDriver/cmd"
	_ "github.com/TheHighestBit/CoDriver/cmd/authorize"
	_ "github.com/TheHighestBit/CoDriver/cmd/copy"
	_ "github.com/TheHighestBit/CoDriver/cmd/download"
	_ "github.com/TheHighestBit/CoDriver/cmd/ls"
	_ "github.com/TheHighestBit/CoDriver/cmd/mkdir"
	_ "github.com/TheHighestBit/CoDriver/cmd/search"
	_ "github.com/TheHighestBit/CoDriver/cmd/signout"
	_ "github.com/TheHighestBit/CoDriver/cmd/size"
	_ "github.com/TheHighestBit/CoDriver/cmd/upload"
)
