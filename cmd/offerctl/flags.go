package main

import (
	"github.com/urfave/cli/v2"
)

const (
	offerFlagName    = "offer"
	fileFlagName     = "file"
	networkFlagName  = "network"
	logLevelFlagName = "log-level"
	bundleFlagName   = "bundle"
	paymentFlagName  = "payment"
	outputFlagName   = "output"
	encodeFlagName   = "encode"
)

var (
	offerFlag = &cli.StringFlag{
		Name:  offerFlagName,
		Usage: "the bech32m offer string",
	}
	fileFlag = &cli.StringFlag{
		Name:  fileFlagName,
		Usage: "path of a file holding the offer string, - for stdin",
	}
	networkFlag = &cli.StringFlag{
		Name:  networkFlagName,
		Usage: "network whose parameters to validate against (mainnet, testnet)",
		Value: "mainnet",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  logLevelFlagName,
		Usage: "logrus level (trace, debug, info, warn, error)",
		Value: "info",
	}
	bundleFlag = &cli.StringFlag{
		Name:     bundleFlagName,
		Usage:    "path of a file holding the hex-encoded signed input spend bundle, - for stdin",
		Required: true,
	}
	paymentFlag = &cli.StringSliceFlag{
		Name:  paymentFlagName,
		Usage: "requested payment as nonce:puzzle_hash:amount, repeatable",
	}
	outputFlag = &cli.StringFlag{
		Name:  outputFlagName,
		Usage: "path to write the combined bundle to, stdout if omitted",
	}
	encodeFlag = &cli.BoolFlag{
		Name:  encodeFlagName,
		Usage: "emit the combined bundle as a bech32m offer string instead of hex",
	}
)
