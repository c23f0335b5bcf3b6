package utils

import "github.com/urfave/cli/v2"

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "",
		Usage:   "load configuration from `file` (default: configs/config.*)",
	}
	OnceFlag = &cli.BoolFlag{
		Name:  "once",
		Usage: "run a single tick and exit",
	}
	ListenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "override api.listen `address`",
	}
)
