package main

import "github.com/dmaines/notewarden/cmd/notewarden/cmd"

func main() {
	cmd.Execute()
}
