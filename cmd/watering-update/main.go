package main

import "github.com/greenpi/watering-deploy/cmd/watering-update/cmd"

func main() {
	cmd.Execute()
}
