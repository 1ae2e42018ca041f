package main

import "github.com/deploymenttheory/go-blockmap/cmd"

func main() {
	cmd.Execute()
}
