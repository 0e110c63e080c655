// Command techsolve is a terminal troubleshooting assistant backed by Gemini.
package main

import "github.com/diogo/techsolve/internal/commands"

func main() {
	commands.Execute()
}
