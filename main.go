package main

import "github.com/py-react/cloud-ops-sub002/cmd"

func main() {
	cmd.Execute()
}
