package main

import "prdb/cmd"

func main() {
	cmd.Execute()
}
