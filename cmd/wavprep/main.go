// ABOUTME: Entry point for the stream preparation tool
// ABOUTME: Converts MP3, FLAC and WAV files or a test tone into playable streams
package main

import (
	"flag"
	"os"
	"time"

	ilog "github.com/Shrimahe-16/Audio-Echo-Generator/internal/log"
	"github.com/Shrimahe-16/Audio-Echo-Generator/internal/prep"
)

const defaultToneLength = 5 * time.Second

var (
	in        = flag.String("in", "", "Audio file to convert (MP3, FLAC, WAV)")
	out       = flag.String("out", "stream.wav", "Output stream path")
	tone      = flag.Bool("tone", false, "Generate a test tone instead of reading -in")
	frequency = flag.Float64("frequency", prep.DefaultToneFrequency, "Test tone frequency in Hz")
	duration  = flag.Duration("duration", 0, "Output length limit (default: whole file, 5s for the tone)")
	rate      = flag.Int("rate", 0, "Output sample rate (default: source rate, 48000 for the tone)")
	channels  = flag.Int("channels", prep.DefaultChannels, "Output channel count")
	debug     = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	log := ilog.Setup(os.Stderr, *debug)

	var src prep.Source
	switch {
	case *tone:
		toneRate := *rate
		if toneRate <= 0 {
			toneRate = prep.DefaultToneRate
		}
		length := *duration
		if length <= 0 {
			length = defaultToneLength
		}
		frames := int(length.Seconds() * float64(toneRate))
		src = prep.NewToneSource(*frequency, toneRate, *channels, frames)
		log.Infof("Generating %.0f Hz tone for %v", *frequency, length)
	case *in != "":
		var err error
		src, err = prep.NewSource(*in)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *in, err)
		}
		log.Infof("Converting %s (%d Hz, %d channels)", *in, src.SampleRate(), src.Channels())
	default:
		log.Fatal("Either -in or -tone is required")
	}
	defer src.Close()

	opts := prep.Options{
		Channels:   *channels,
		SampleRate: *rate,
		Log:        log,
	}
	if !*tone && *duration > 0 {
		outRate := *rate
		if outRate <= 0 {
			outRate = src.SampleRate()
		}
		opts.MaxFrames = int(duration.Seconds() * float64(outRate))
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer f.Close()

	res, err := prep.Convert(src, f, opts)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	log.WithField("path", *out).Infof("Stream ready: %d Hz, %d channels, %d payload bytes",
		res.SampleRate, res.Channels, res.PayloadBytes)
}
