package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/cwkey/cmd/encode"
	"github.com/gigurra/cwkey/cmd/live"
	"github.com/gigurra/cwkey/cmd/play"
	"github.com/gigurra/cwkey/cmd/settings"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "cwkey",
		Short:   "Morse code keyer",
		Long:    "Encode text as International Morse Code and key it out in real time on a terminal lamp, the bell or an audio tone.",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			encode.Cmd(),
			play.Cmd(),
			live.Cmd(),
			settings.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
