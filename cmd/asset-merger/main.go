package main

import "asset-merger/cmd"

func main() {
	cmd.Execute()
}
