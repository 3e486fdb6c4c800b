package main

import "github.com/greenpi/watering-deploy/cmd/watering-install/cmd"

func main() {
	cmd.Execute()
}
