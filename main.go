package main

import "github.com/marchholm/sage/cmd"

func main() {
	cmd.Execute()
}
