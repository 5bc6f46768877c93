package main

import "github.com/Adedotun019/EventSense-AI/internal/cli"

func main() {
	cli.Main()
}
