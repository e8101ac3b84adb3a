package main

import "github.com/skillgate/skillgate/cmd/skillgate/cmd"

func main() {
	cmd.Execute()
}
