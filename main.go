package main

import "orderbot/cmd"

func main() {
	cmd.Execute()
}
