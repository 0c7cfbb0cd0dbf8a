// Package main implements the slipway CLI tool.
// It provides commands for working with service blueprints locally and
// for talking to the slipway daemon.
package main

import "github.com/slipway/slipway/cmd/slipway/cmd"

func main() {
	cmd.Execute()
}
