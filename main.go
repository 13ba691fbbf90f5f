package main

import "github.com/kozaktomas/capture-kit/cmd"

func main() {
	cmd.Execute()
}
