// The main package for the partywatch executable.
package main

import (
	"github.com/jinwoo-dev/partywatch/cmd"
)

func main() {
	cmd.Execute()
}
