package main

import "github.com/deploymenttheory/go-refs/cmd"

func main() {
	cmd.Execute()
}
