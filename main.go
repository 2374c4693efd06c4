package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"nsfplay/emu"
	"nsfplay/nsf"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		fmt.Println("nsfplay", version())
	case infoMode:
		f, err := nsf.Open(cli.Info.NSFPath)
		checkf(err, "failed to open nsf")
		if cli.Info.JSON {
			os.Stdout.Write(infoJSON(f))
		} else {
			printInfos(os.Stdout, f)
		}
	case renderMode:
		cfg := emu.LoadConfigOrDefault()
		checkf(cli.Render.run(cfg), "render failed")
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}
