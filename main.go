// The main package for the creepy executable.
package main

import (
	"github.com/JakeFAU/creepy/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
