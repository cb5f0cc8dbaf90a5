package main

import "github.com/camldex/camldex/cmd"

func main() {
	cmd.Execute()
}
