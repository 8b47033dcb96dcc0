package filtergraph

import (
	"fmt"
	"strings"
)

// TextAnimation selects how an overlay enters and leaves.
type TextAnimation string

const (
	AnimationNone  TextAnimation = ""
	AnimationFade  TextAnimation = "fade"
	AnimationSlide TextAnimation = "slide"
)

// TextOverlay is one positioned, styled, time-windowed caption.
type TextOverlay struct {
	Text      string        `json:"text"`
	FontSize  int           `json:"font_size"`
	FontColor string        `json:"font_color"`
	Position  string        `json:"position"`
	Start     float64       `json:"start"`
	End       float64       `json:"end"`
	Animation TextAnimation `json:"animation,omitempty"`
	Box       bool          `json:"box,omitempty"`
	BoxColor  string        `json:"box_color,omitempty"`
}

// overlayPosition maps a position preset to drawtext x/y expressions.
func overlayPosition(position string) (x, y string) {
	switch position {
	case "top-left":
		return "20", "20"
	case "top-center":
		return "(w-text_w)/2", "20"
	case "top-right":
		return "w-text_w-20", "20"
	case "center":
		return "(w-text_w)/2", "(h-text_h)/2"
	case "bottom-left":
		return "20", "h-text_h-20"
	case "bottom-right":
		return "w-text_w-20", "h-text_h-20"
	default: // bottom-center
		return "(w-text_w)/2", "h-text_h-20"
	}
}

// fadeDuration is the enter/leave ramp used by animated overlays.
const fadeDuration = 0.5

// drawtextExpr renders one overlay as a drawtext filter expression.
func drawtextExpr(o TextOverlay) string {
	fontSize := o.FontSize
	if fontSize <= 0 {
		fontSize = 36
	}
	fontColor := o.FontColor
	if fontColor == "" {
		fontColor = "white"
	}

	x, y := overlayPosition(o.Position)

	parts := []string{
		fmt.Sprintf("text='%s'", escapeText(o.Text)),
		fmt.Sprintf("fontsize=%d", fontSize),
	}

	switch o.Animation {
	case AnimationFade:
		// Alpha ramps in over the first half second of the window and
		// out over the last.
		alpha := fmt.Sprintf(
			"if(lt(t\\,%[1]g+%[3]g)\\,(t-%[1]g)/%[3]g\\,if(gt(t\\,%[2]g-%[3]g)\\,(%[2]g-t)/%[3]g\\,1))",
			o.Start, o.End, fadeDuration)
		parts = append(parts,
			fmt.Sprintf("fontcolor=%s", fontColor),
			fmt.Sprintf("alpha='%s'", alpha))
	case AnimationSlide:
		// Slides in from the left edge to the resting x position.
		x = fmt.Sprintf("'if(lt(t\\,%[1]g+%[2]g)\\,-text_w+((t-%[1]g)/%[2]g)*((%[3]s)+text_w)\\,%[3]s)'",
			o.Start, fadeDuration, x)
		parts = append(parts, fmt.Sprintf("fontcolor=%s", fontColor))
	default:
		parts = append(parts, fmt.Sprintf("fontcolor=%s", fontColor))
	}

	parts = append(parts, fmt.Sprintf("x=%s", x), fmt.Sprintf("y=%s", y))

	if o.Box {
		boxColor := o.BoxColor
		if boxColor == "" {
			boxColor = "black@0.5"
		}
		parts = append(parts, "box=1", fmt.Sprintf("boxcolor=%s", boxColor), "boxborderw=8")
	}

	parts = append(parts, fmt.Sprintf("enable='between(t\\,%g\\,%g)'", o.Start, o.End))

	return "drawtext=" + strings.Join(parts, ":")
}

// BuildOverlays chains every overlay into one filter expression reading from
// inputLabel and writing to outputLabel. An empty overlay list degrades to a
// pass-through null filter so callers always get a usable fragment.
func BuildOverlays(overlays []TextOverlay, inputLabel, outputLabel string) Fragment {
	if len(overlays) == 0 {
		return Fragment{
			Text:        fmt.Sprintf("[%s]null[%s]", inputLabel, outputLabel),
			OutputLabel: outputLabel,
		}
	}

	exprs := make([]string, 0, len(overlays))
	for _, o := range overlays {
		exprs = append(exprs, drawtextExpr(o))
	}

	return Fragment{
		Text:        fmt.Sprintf("[%s]%s[%s]", inputLabel, strings.Join(exprs, ","), outputLabel),
		OutputLabel: outputLabel,
	}
}
