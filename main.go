package main

import "trendhub/cmd"

func main() {
	cmd.Execute()
}
