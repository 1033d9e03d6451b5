package main

import "github.com/OpenTraceLab/OpenTraceMCU/cmd/otm/cmd"

func main() {
	cmd.Execute()
}
