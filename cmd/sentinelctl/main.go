package main

import "sentinel/cmd/sentinelctl/cmd"

func main() {
	cmd.Execute()
}
