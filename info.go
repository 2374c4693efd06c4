package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-faster/jx"

	"nsfplay/nsf"
)

func printInfos(w io.Writer, f *nsf.File) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "title:\t%s\n", f.Title())
	fmt.Fprintf(tw, "artist:\t%s\n", f.Artist())
	fmt.Fprintf(tw, "copyright:\t%s\n", f.Copyright())
	fmt.Fprintf(tw, "version:\t%d\n", f.Version)
	fmt.Fprintf(tw, "songs:\t%d (start %d)\n", f.Songs, f.Start)
	fmt.Fprintf(tw, "load:\t$%04X\n", f.LoadAddr)
	fmt.Fprintf(tw, "init:\t$%04X\n", f.InitAddr)
	fmt.Fprintf(tw, "play:\t$%04X\n", f.PlayAddr)
	fmt.Fprintf(tw, "region:\t%s\n", f.Region())
	fmt.Fprintf(tw, "speed:\tntsc %dµs, pal %dµs\n", f.NTSCSpeed, f.PALSpeed)
	fmt.Fprintf(tw, "chips:\t%s\n", f.Chips)
	if f.IsBankswitched() {
		fmt.Fprintf(tw, "banks:\t% x\n", f.Banks[:])
	} else {
		fmt.Fprintf(tw, "banks:\tnone\n")
	}
	fmt.Fprintf(tw, "size:\t%d bytes\n", len(f.Data))
	tw.Flush()
}

func infoJSON(f *nsf.File) []byte {
	var e jx.Encoder
	e.SetIdent(2)

	e.ObjStart()
	e.FieldStart("title")
	e.Str(f.Title())
	e.FieldStart("artist")
	e.Str(f.Artist())
	e.FieldStart("copyright")
	e.Str(f.Copyright())
	e.FieldStart("version")
	e.Int(int(f.Version))
	e.FieldStart("songs")
	e.Int(int(f.Songs))
	e.FieldStart("start")
	e.Int(int(f.Start))
	e.FieldStart("load")
	e.Int(int(f.LoadAddr))
	e.FieldStart("init")
	e.Int(int(f.InitAddr))
	e.FieldStart("play")
	e.Int(int(f.PlayAddr))
	e.FieldStart("region")
	e.Str(f.Region().String())
	e.FieldStart("ntsc_speed")
	e.Int(int(f.NTSCSpeed))
	e.FieldStart("pal_speed")
	e.Int(int(f.PALSpeed))

	e.FieldStart("chips")
	e.ArrStart()
	for _, c := range []nsf.Chips{nsf.VRC6, nsf.VRC7, nsf.FDS, nsf.MMC5, nsf.N163, nsf.FME07} {
		if f.Chips.Has(c) {
			e.Str(c.String())
		}
	}
	e.ArrEnd()

	e.FieldStart("bankswitched")
	e.Bool(f.IsBankswitched())
	if f.IsBankswitched() {
		e.FieldStart("banks")
		e.ArrStart()
		for _, b := range f.Banks {
			e.Int(int(b))
		}
		e.ArrEnd()
	}
	e.ObjEnd()

	return append(e.Bytes(), '\n')
}
