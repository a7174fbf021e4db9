package main

import "github.com/waheeda129/face-attendance/cmd"

func main() {
	cmd.Execute()
}
