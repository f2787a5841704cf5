package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jpillora/overseer"

	"github.com/benedict-erwin/license-console/cmd"
	"github.com/benedict-erwin/license-console/config"
)

// main starts the console under overseer for zero-downtime restarts; every other command runs directly
func main() {
	if len(os.Args) >= 2 && os.Args[1] == "console" {
		overseer.Run(overseer.Config{
			Program: func(state overseer.State) {
				cmd.ExecuteWithListener(state.Listener)
			},
			Address:          fmt.Sprintf(":%d", config.Get().Console.Port),
			RestartSignal:    overseer.SIGUSR2,
			TerminateTimeout: 30 * time.Second,
		})
		return
	}
	cmd.Execute()
}
