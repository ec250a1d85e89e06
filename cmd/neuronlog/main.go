// Command neuronlog inspects the NeuronWatch store from the command line.
//
// The GUI holds the store lock while it runs, so quit NeuronWatch first.
//
// Usage:
//
//	neuronlog timers
//	neuronlog history list
//	neuronlog history export [-o file]
//	neuronlog history import <file>
//	neuronlog history clear
package main

import (
	"os"

	"neuronwatch/cmd/neuronlog/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
