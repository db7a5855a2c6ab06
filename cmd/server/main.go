package main

import "github.com/deepthoughts/thoughts-server/cmd"

func main() {
	cmd.Run()
}
