package main

import "nailchat/cmd"

func main() {
	cmd.Execute()
}
