// Command irondomoctl issues IronDomo requests from the command line.
package main

import "github.com/waterviewsrl/IronDomo/cmd/client/cmd"

func main() {
	cmd.Execute()
}
