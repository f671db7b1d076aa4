package main

import "github.com/MeKo-Tech/tallyocr/cmd/tallyocr/cmd"

func main() {
	cmd.Execute()
}
