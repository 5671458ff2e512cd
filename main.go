package main

import "github.com/xvierd/mootimer/cmd"

func main() {
	cmd.Execute()
}
