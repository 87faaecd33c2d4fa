// Command treasury manages group treasuries held in Safe multisig accounts.
package main

import "github.com/mesh-intelligence/treasury/internal/cli"

func main() {
	cli.Execute()
}
