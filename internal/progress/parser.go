// Package progress decodes ffmpeg's streaming textual progress output into
// structured samples and aggregates weighted pipeline stages into one
// monotonic overall percentage.
package progress

import (
	"regexp"
	"strconv"
	"time"
)

// Sample is one decoded progress line.
type Sample struct {
	Frame      int64
	FPS        float64
	SizeKB     int64
	OutTime    time.Duration
	BitrateKbs float64
	Speed      float64
	Percent    float64
	ETASeconds float64
}

var (
	frameRe    = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe      = regexp.MustCompile(`fps=\s*([\d.]+)`)
	sizeRe     = regexp.MustCompile(`size=\s*(\d+)[kK]i?B`)
	timeRe     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2}(?:\.\d+)?)`)
	bitrateRe  = regexp.MustCompile(`bitrate=\s*([\d.]+)kbits/s`)
	speedRe    = regexp.MustCompile(`speed=\s*([\d.]+)x`)
	durationRe = regexp.MustCompile(`Duration:\s*(\d{2}):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// speedWindow bounds the rolling average used for ETA.
const speedWindow = 10

// Parser decodes one engine's stderr stream. Not safe for concurrent use;
// each supervised subprocess owns its own parser.
type Parser struct {
	totalDuration float64
	speeds        []float64
	lastPercent   float64
}

// NewParser builds a parser for one stream. totalDuration is the expected
// output length in seconds; zero means unknown, and percent stays 0.
func NewParser(totalDuration float64) *Parser {
	return &Parser{totalDuration: totalDuration}
}

// SetTotalDuration installs a duration discovered after construction, e.g.
// from the engine's startup banner.
func (p *Parser) SetTotalDuration(seconds float64) {
	p.totalDuration = seconds
}

// ParseLine decodes a single line of engine output. Lines without a
// time= field are not progress lines and return false.
func (p *Parser) ParseLine(line string) (*Sample, bool) {
	m := timeRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	sample := &Sample{OutTime: hmsToDuration(m[1], m[2], m[3])}

	if m := frameRe.FindStringSubmatch(line); m != nil {
		sample.Frame, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := fpsRe.FindStringSubmatch(line); m != nil {
		sample.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		sample.SizeKB, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := bitrateRe.FindStringSubmatch(line); m != nil {
		sample.BitrateKbs, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		sample.Speed, _ = strconv.ParseFloat(m[1], 64)
	}

	elapsed := sample.OutTime.Seconds()
	if p.totalDuration > 0 {
		percent := elapsed / p.totalDuration * 100
		if percent > 100 {
			percent = 100
		}
		// Progress within one job never goes backwards.
		if percent < p.lastPercent {
			percent = p.lastPercent
		}
		p.lastPercent = percent
		sample.Percent = percent
	}

	if sample.Speed > 0 {
		p.speeds = append(p.speeds, sample.Speed)
		if len(p.speeds) > speedWindow {
			p.speeds = p.speeds[len(p.speeds)-speedWindow:]
		}
	}
	if avg := p.averageSpeed(); avg > 0 && p.totalDuration > 0 {
		remaining := p.totalDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		sample.ETASeconds = remaining / avg
	}

	return sample, true
}

func (p *Parser) averageSpeed() float64 {
	if len(p.speeds) == 0 {
		return 0
	}
	var sum float64
	for _, s := range p.speeds {
		sum += s
	}
	return sum / float64(len(p.speeds))
}

// ParseBannerDuration extracts the total duration from the engine's startup
// banner ("Duration: 00:01:30.45, ...").
func ParseBannerDuration(line string) (float64, bool) {
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return hmsToDuration(m[1], m[2], m[3]).Seconds(), true
}

func hmsToDuration(h, m, s string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.ParseFloat(s, 64)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
}
