package main

import "github.com/MeKo-Tech/slimtimer/cmd/slimtimer/cmd"

func main() {
	cmd.Execute()
}
