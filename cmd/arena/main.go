package main

import "github.com/tradeclash/arena/cmd/arena/cmd"

func main() {
	cmd.Execute()
}
