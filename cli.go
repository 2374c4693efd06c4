package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nsfplay/emu/log"
)

type mode byte

const (
	infoMode    mode = iota // Show NSF infos
	renderMode              // Render tracks to WAV
	versionMode             // Show nsfplay version
)

type (
	CLI struct {
		Info    Info    `cmd:"" help:"Show NSF file infos."`
		Render  Render  `cmd:"" help:"Render tracks to WAV files."`
		Version Version `cmd:"" help:"Show nsfplay version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Info struct {
		NSFPath string `arg:"" name:"/path/to/nsf" type:"existingfile"`
		JSON    bool   `name:"json" help:"Output infos as JSON."`
	}

	Render struct {
		NSFPath string `arg:"" name:"/path/to/nsf" type:"existingfile"`

		Tracks  []int    `name:"track" short:"t" help:"${track_help}" placeholder:"N"`
		All     bool     `name:"all" help:"Render all tracks."`
		Seconds float64  `name:"seconds" help:"Duration of each track, in seconds." default:"60"`
		Rate    int      `name:"rate" help:"Sample rate in Hz. (default from config)"`
		Bits    int      `name:"bits" help:"Bits per sample, 8 or 16. (default from config)"`
		Stereo  bool     `name:"stereo" help:"Write stereo files."`
		Filter  string   `name:"filter" help:"${filter_help}" placeholder:"none|lowpass|weighted|bandlimited"`
		Mute    []string `name:"mute" help:"Channels to exclude from the mix." placeholder:"ch0,ch1,..."`
		Out     string   `name:"out" short:"o" help:"${out_help}" default:"{name}-{track}.wav"`
		Trace   *outfile `name:"trace" help:"Write CPU trace log. (single track only)" placeholder:"FILE|stdout|stderr"`
		Jobs    int      `name:"jobs" short:"j" help:"Number of tracks rendered in parallel." default:"4"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"track_help":  "Track to render, 1-based. Can be repeated. (default starting track)",
	"filter_help": "Output filter. (default from config)",
	"out_help":    "Output file pattern. {name} is the NSF file name, {track} the track number.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nsfplay"),
		kong.Description("NSF music player and renderer."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "info </path/to/nsf>":
		cfg.mode = infoMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = renderMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "render") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	mask, disable, err := parseLogModules(ctx.Scan.Pop().Value.(string))
	if err != nil {
		return err
	}
	if disable {
		log.Disable()
		return nil
	}
	log.EnableDebugModules(mask)
	return nil
}

func parseLogModules(list string) (mask log.ModuleMask, disable bool, err error) {
	nolog := false
	allLogs := false

	for _, v := range strings.Split(list, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return 0, false, fmt.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return 0, false, fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return 0, false, fmt.Errorf("cannot combine 'no' with other log modules")
		}
		return 0, true, nil
	}

	if allLogs {
		mask = log.ModuleMaskAll
	}
	return mask, false, nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
