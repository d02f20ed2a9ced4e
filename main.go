// main package for movemut command-line tool
// Package main is the entry point for the Movemut CLI.
package main

import "movemut.dev/pkg/movemut/cmd"

func main() {
	cmd.Execute()
}
