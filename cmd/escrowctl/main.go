// escrowctl is the control-plane CLI for escrowd, in the shape of
// cmd/lncli: a urfave/cli app whose global --rpcserver flag names the
// daemon to talk to, with one subcommand per coordinator command.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[escrowctl] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "escrowctl"
	app.Version = "0.1"
	app.Usage = "control plane for escrowd"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "localhost:8421",
			Usage: "host:port of the escrowd command transport",
		},
	}
	app.Commands = []cli.Command{
		createDstCommand,
		fundCommand,
		withdrawCommand,
		cancelCommand,
		rescueCommand,
		getEscrowCommand,
		healthCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// printJSON pretty-prints an arbitrary response body, mirroring lncli's
// printJson helper.
func printJSON(resp interface{}) {
	b, err := json.Marshal(resp)
	if err != nil {
		fatal(err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "    "); err != nil {
		fatal(err)
	}
	out.WriteTo(os.Stdout)
	fmt.Println()
}
