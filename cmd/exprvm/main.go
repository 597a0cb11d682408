// Command exprvm applies a per-plane postfix expression to real image
// files from the command line.
//
// Usage:
//
//	exprvm apply -expr "x 1.2 *" [-o out.png] <input> [input2] [input3]
//	exprvm check -expr "x 1.2 *"
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"strings"

	"golang.org/x/image/webp"

	nativewebp "github.com/HugoSmits86/nativewebp"

	"exprvm/internal/filter"
	"exprvm/internal/frame"
	"exprvm/internal/pixfmt"
	"exprvm/internal/token"
)

var commandAliases = map[string]string{
	"a": "apply",
	"c": "check",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	var err error
	switch cmd {
	case "apply":
		err = runApply(args[1:])
	case "check":
		err = runCheck(args[1:])
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "exprvm: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("exprvm: %v", err)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  exprvm apply -expr "<postfix>" [-o out.png] <input> [input2] [input3]
  exprvm check -expr "<postfix>"

"apply" decodes 1-3 8-bit grayscale planes (from PNG/JPEG/WebP inputs,
each resized to the first input's dimensions is NOT performed — inputs
must already match), evaluates the expression per pixel as x/y/z, and
writes an 8-bit PNG or WebP by output extension.

"check" splits an expression into tokens and prints them without
touching any image file; it does not parse or fold the expression.
`)
}

func runApply(args []string) error {
	exprFlag, o, rest, err := parseApplyArgs(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("apply: at least one input image is required")
	}
	if len(rest) > 3 {
		return fmt.Errorf("apply: at most three input images are supported")
	}

	var clips [3]*filter.ClipInfo
	var inputs [3][]frame.Plane
	for i, path := range rest {
		img, err := decodeImage(path)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		p := imageToPlane(img)
		inputs[i] = []frame.Plane{p}
		clips[i] = &filter.ClipInfo{
			Width: p.Width, Height: p.Height, NumPlanes: 1,
			SubsampleW: 1, SubsampleH: 1,
			PlaneFormat: []pixfmt.Format{p.Format},
		}
	}

	f, err := filter.New(filter.Params{Clips: clips, Expr: []string{exprFlag}})
	if err != nil {
		return err
	}

	dst := f.Apply(inputs)
	return writeImage(o, dst[0])
}

func runCheck(args []string) error {
	exprFlag := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "-expr" && i+1 < len(args) {
			exprFlag = args[i+1]
			i++
		}
	}
	if exprFlag == "" {
		return fmt.Errorf("check: -expr is required")
	}
	tokens := token.Split(exprFlag)
	fmt.Printf("tokens: %v\n", tokens)
	return nil
}

func parseApplyArgs(args []string) (expr, out string, rest []string, err error) {
	out = "out.png"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-expr":
			if i+1 >= len(args) {
				return "", "", nil, fmt.Errorf("-expr requires a value")
			}
			expr = args[i+1]
			i++
		case "-o":
			if i+1 >= len(args) {
				return "", "", nil, fmt.Errorf("-o requires a value")
			}
			out = args[i+1]
			i++
		default:
			rest = append(rest, args[i])
		}
	}
	if expr == "" {
		return "", "", nil, fmt.Errorf("-expr is required")
	}
	return expr, out, rest, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(strings.ToLower(path), ".webp"):
		return webp.Decode(f)
	case strings.HasSuffix(strings.ToLower(path), ".jpg"), strings.HasSuffix(strings.ToLower(path), ".jpeg"):
		return jpeg.Decode(f)
	default:
		return png.Decode(f)
	}
}

func writeImage(path string, p frame.Plane) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img := planeToGray(p)
	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		return nativewebp.Encode(f, img, nil)
	}
	return png.Encode(f, img)
}

// imageToPlane extracts a single 8-bit grayscale plane, matching the
// core's 8-bit integer format. Color inputs are luma-converted by
// image/color.Gray's standard weighting.
func imageToPlane(img image.Image) frame.Plane {
	b := img.Bounds()
	p := frame.NewPlane(pixfmt.Format{Type: pixfmt.Integer, BitDepth: 8}, b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			p.Data[y*p.Stride+x] = gray.Y
		}
	}
	return p
}

func planeToGray(p frame.Plane) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(p.Sample(x, y))})
		}
	}
	return img
}
