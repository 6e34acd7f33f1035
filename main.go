package main

import "github.com/robmorgan/downbeat/cmd"

func main() {
	cmd.Execute()
}
