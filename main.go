package main

import "vibe-check-backend/cmd"

func main() {
	cmd.Execute()
}
