package main

import "smart-attendance/cmd"

func main() {
	cmd.Execute()
}
