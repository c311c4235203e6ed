package main

import "github.com/Ev3lynx727/containerd-apps-tokped-scrapper/cmd"

func main() {
	cmd.Execute()
}
