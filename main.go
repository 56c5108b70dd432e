package main

import "github.com/iksnae/gallery-session/cmd"

func main() {
	cmd.Execute()
}
