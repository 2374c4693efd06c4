package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/sync/errgroup"

	"nsfplay/emu"
	"nsfplay/emu/log"
	"nsfplay/hw/apu"
	"nsfplay/nsf"
)

// apply overrides cfg with the flags set on the command line.
func (r *Render) apply(cfg *emu.Config) error {
	if r.Rate != 0 {
		cfg.Audio.SampleRate = r.Rate
	}
	if r.Bits != 0 {
		cfg.Audio.SampleBits = r.Bits
	}
	if r.Stereo {
		cfg.Audio.Stereo = true
	}
	if r.Filter != "" {
		f, err := apu.ParseFilter(r.Filter)
		if err != nil {
			return err
		}
		cfg.Audio.Filter = f
	}
	for _, m := range r.Mute {
		cfg.Playback.Muted = append(cfg.Playback.Muted, strings.Split(m, ",")...)
	}
	return cfg.Check()
}

// tracks returns the 1-based tracks to render.
func (r *Render) tracks(hdr *nsf.Header) []int {
	switch {
	case r.All:
		tracks := make([]int, hdr.Songs)
		for i := range tracks {
			tracks[i] = i + 1
		}
		return tracks
	case len(r.Tracks) > 0:
		return r.Tracks
	}
	return []int{max(int(hdr.Start), 1)}
}

// outPath expands the output file pattern for a track.
func (r *Render) outPath(track int) string {
	name := filepath.Base(r.NSFPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer(
		"{name}", name,
		"{track}", fmt.Sprintf("%02d", track),
	).Replace(r.Out)
}

func (r *Render) run(cfg emu.Config) error {
	if r.Trace != nil {
		defer r.Trace.Close()
	}
	if err := r.apply(&cfg); err != nil {
		return err
	}
	if r.Seconds <= 0 {
		return fmt.Errorf("invalid duration %gs", r.Seconds)
	}

	raw, err := os.ReadFile(r.NSFPath)
	if err != nil {
		return err
	}
	f, err := nsf.Read(raw)
	if err != nil {
		return err
	}

	tracks := r.tracks(&f.Header)
	if r.Trace != nil {
		if len(tracks) > 1 {
			return fmt.Errorf("--trace needs a single track, got %d", len(tracks))
		}
		cfg.TraceOut = r.Trace
	}

	var g errgroup.Group
	g.SetLimit(max(r.Jobs, 1))
	for _, track := range tracks {
		g.Go(func() error {
			path := r.outPath(track)
			if err := renderTrack(raw, track, r.Seconds, path, cfg); err != nil {
				return fmt.Errorf("track %d: %w", track, err)
			}
			log.ModEmu.InfoZ("track rendered").Int("track", track).String("path", path).End()
			fmt.Println(path)
			return nil
		})
	}
	return g.Wait()
}

// renderTrack renders a track into a WAV file. Every track gets its own
// session.
func renderTrack(raw []byte, track int, seconds float64, path string, cfg emu.Config) (err error) {
	s, err := emu.LoadBytes(raw, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	format := cfg.Audio.Format()
	if err := s.SelectTrack(track, format); err != nil {
		return err
	}

	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fd.Close(); err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(fd, format.SampleRate, format.Bits, format.Channels(), 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: format.Channels(),
			SampleRate:  format.SampleRate,
		},
		SourceBitDepth: format.Bits,
	}

	remain := int(seconds * float64(format.SampleRate))
	for remain > 0 {
		n := min(remain, format.SampleRate)
		pcm, err := s.Render(n)
		if err != nil {
			return err
		}
		buf.Data = appendInts(buf.Data[:0], pcm, format)
		if err := enc.Write(buf); err != nil {
			return err
		}
		remain -= n
	}
	return enc.Close()
}

// appendInts converts packed PCM to the values the WAV encoder expects.
func appendInts(dst []int, pcm []byte, f apu.Format) []int {
	if f.Bits == 8 {
		for _, b := range pcm {
			dst = append(dst, int(b))
		}
		return dst
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		dst = append(dst, int(int16(binary.LittleEndian.Uint16(pcm[i:]))))
	}
	return dst
}
