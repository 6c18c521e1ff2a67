package main

import "ansiblefixture/internal/cli"

func main() {
	cli.Run("ansible-fixture")
}
