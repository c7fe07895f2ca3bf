// Command chatstream streams chat replies from a completion endpoint.
package main

import "github.com/diogo/chatstream/internal/commands"

func main() {
	commands.Execute()
}
