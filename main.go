package main

import "github.com/darmiel/guestgate/cmd"

func main() {
	cmd.Execute()
}
