package main

import "ChintuIdrive/host-health-watchdog/cmd"

func main() {
	cmd.Execute()
}
