package main

import "github.com/eldorado-park/parkctl/cmd"

func main() {
	cmd.Execute()
}
