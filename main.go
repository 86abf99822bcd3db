package main

import "github.com/espp/tuition-management/cmd"

func main() {
	cmd.Execute()
}
