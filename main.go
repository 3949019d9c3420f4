package main

import "github.com/rastertools/sharpen/cmd"

func main() {
	cmd.Execute()
}
