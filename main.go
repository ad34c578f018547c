package main

import "github.com/Yates-Labs/fplab/cmd"

func main() {
	cmd.Execute()
}
