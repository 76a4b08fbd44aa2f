package main

import "github.com/oshokin/datalogger/cmd/datalogger-ctl/cmd"

func main() {
	cmd.Execute()
}
