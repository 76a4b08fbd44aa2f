package main

import "github.com/oshokin/datalogger/cmd/datalogger/cmd"

func main() {
	cmd.Execute()
}
