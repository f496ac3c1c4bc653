package main

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

// envReplacer replaces `-` to `_`.
// This is used to map flag like `--log-level` to environment variables like `LOG_LEVEL`.
var envReplacer = strings.NewReplacer("-", "_")

func init() {
	viper.SetEnvPrefix("OFFERCTL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(envReplacer)
}

// configuredString resolves a string setting: an explicit flag wins, then
// the OFFERCTL_* environment, then the flag default.
func configuredString(ctx *cli.Context, name string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	if v := viper.GetString(name); v != "" {
		return v
	}
	return ctx.String(name)
}
