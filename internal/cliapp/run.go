package cliapp

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Fepozopo/clrq/internal/gpuaccel"
	"github.com/Fepozopo/clrq/internal/imgio"
	"github.com/Fepozopo/clrq/internal/paletteops"
	"github.com/Fepozopo/clrq/pkg/cli"
	"github.com/Fepozopo/clrq/pkg/semver"
)

func usage() {
	fmt.Println("Commands available:")
	fmt.Println("  /  - select and run a palette command")
	fmt.Println("  o  - open an image and draw a fresh sample")
	fmt.Println("  s  - save the current pixel buffer")
	fmt.Println("  p  - preview the current pixel buffer in the terminal")
	fmt.Println("  i  - show EXIF metadata for the loaded image")
	fmt.Println("  g  - toggle the GPU accelerator for remap commands")
	fmt.Println("  u  - check for updates")
	fmt.Println("  h  - show this help message")
	fmt.Println("  q  - quit")
}

// openSession loads path into a fresh Session and, when the terminal
// supports it, previews the decoded buffer immediately.
func openSession(path string, cfg Config) (*paletteops.Session, error) {
	s, err := paletteops.LoadImage(path, 5000, cfg.Seed)
	if err != nil {
		return nil, err
	}
	previewSession(s)
	return s, nil
}

// previewSession renders a session's current pixel buffer inline when the
// terminal supports it; failures are non-fatal since preview is optional.
func previewSession(sess *paletteops.Session) {
	if sess == nil || !cli.PreviewSupported() {
		return
	}
	img := imgio.PackedToImage(sess.Width, sess.Height, sess.Pixels)
	if err := cli.PreviewImage(img, "png"); err != nil {
		fmt.Fprintf(os.Stderr, "preview failed: %v\n", err)
	}
}

// printEXIFSummary extracts and prints the EXIF metadata for the image a
// session was loaded from.
func printEXIFSummary(sess *paletteops.Session) {
	if sess == nil || sess.Path == "" {
		fmt.Println("identify: no image path available to extract EXIF")
		return
	}
	ex, err := imgio.ExtractEXIFStruct(sess.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to extract EXIF: %v\n", err)
		return
	}
	if ex.Make != "" || ex.Model != "" {
		fmt.Printf("Make: %s\nModel: %s\n", ex.Make, ex.Model)
	}
	if ex.Software != "" {
		fmt.Printf("Software: %s\n", ex.Software)
	}
	if ex.Orientation != 0 {
		fmt.Printf("Orientation: %d\n", ex.Orientation)
	}
	if ex.DateTimeOriginal != "" {
		fmt.Printf("DateTimeOriginal: %s\n", ex.DateTimeOriginal)
	}
	if ex.Exposure != 0 {
		fmt.Printf("Exposure: %.4f sec\n", ex.Exposure)
	}
	if ex.FNumber != 0 {
		fmt.Printf("FNumber: f/%.1f\n", ex.FNumber)
	}
	if ex.ISOSpeed != 0 {
		fmt.Printf("ISO Speed: %d\n", ex.ISOSpeed)
	}
	if ex.FocalLength != 0 {
		fmt.Printf("FocalLength: %.1f mm\n", ex.FocalLength)
	}
	if ex.LensModel != "" {
		fmt.Printf("LensModel: %s\n", ex.LensModel)
	}
	if ex.HasGPS() {
		lat, lon, _ := ex.GPSLatLong()
		fmt.Println("GPS:")
		fmt.Printf("  Latitude:  %.8f %s\n", lat, ex.GPS.LatRef)
		fmt.Printf("  Longitude: %.8f %s\n", lon, ex.GPS.LonRef)
	}
}

// Run is the palette-engine REPL entry point: it loads an image into an
// internal/paletteops.Session, drives clustering/remap commands through
// paletteops.Dispatch, and renders results to the terminal.
func Run() {
	cfg := LoadConfig(".env", DefaultConfig())

	var inputImagePath string
	if len(os.Args) >= 2 {
		inputImagePath = os.Args[1]
	}

	var sess *paletteops.Session
	gpuEnabled := cfg.GPUEnabled
	if gpuEnabled {
		if err := gpuaccel.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "GPU accelerator unavailable: %v\n", err)
			gpuEnabled = false
		}
	}

	if inputImagePath != "" {
		s, err := openSession(inputImagePath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", inputImagePath, err)
			os.Exit(1)
		}
		sess = s
		fmt.Printf("Loaded %s (%dx%d), sample size %d\n", inputImagePath, sess.Width, sess.Height, len(sess.Sample))
	}

	// Sanity-check the build version string with the repo's own semver
	// parser before update.go hands it to blang/semver for the actual
	// release comparison — a malformed Version caught here is cheaper to
	// diagnose than one surfacing mid-update-check.
	if _, err := semver.Parse(cli.Version); err != nil {
		fmt.Fprintf(os.Stderr, "warning: build version %q is not valid semver: %v\n", cli.Version, err)
	}

	fmt.Println("Palette Quantization Engine")
	usage()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		r, _, err := reader.ReadRune()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read input error: %v\n", err)
			continue
		}

		switch r {
		case '/':
			if sess == nil {
				fmt.Println("No image loaded. Press 'o' to open one first, or pass an image path as the first argument.")
				continue
			}
			sess.UseGPU = gpuEnabled
			runCommand(sess)

		case 's':
			out, _ := cli.PromptLine("Enter output filename: ")
			if out == "" {
				fmt.Println("no filename provided")
				continue
			}
			quality, _ := strconv.Atoi(mustPromptDefault("JPEG quality (1-100, default 90): ", "90"))
			if err := paletteops.SaveImage(sess, out, quality); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write image: %v\n", err)
				continue
			}
			fmt.Printf("Saved to %s\n", out)

		case 'o':
			newPath, err := cli.SelectFileWithFzf(".")
			if err != nil || newPath == "" {
				newPath, _ = cli.PromptLine("Enter path to image to open: ")
			}
			if newPath == "" {
				fmt.Println("open cancelled")
				continue
			}
			s, err := openSession(newPath, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", newPath, err)
				continue
			}
			sess = s
			fmt.Printf("Opened %s (%dx%d), sample size %d\n", newPath, sess.Width, sess.Height, len(sess.Sample))

		case 'p':
			if sess == nil {
				fmt.Println("No image loaded.")
				continue
			}
			previewSession(sess)

		case 'i':
			printEXIFSummary(sess)

		case 'g':
			if !gpuEnabled {
				if err := gpuaccel.Init(); err != nil {
					fmt.Fprintf(os.Stderr, "GPU accelerator unavailable: %v\n", err)
					continue
				}
				gpuEnabled = true
				fmt.Println("GPU accelerator enabled")
			} else {
				_ = gpuaccel.Cleanup()
				gpuEnabled = false
				fmt.Println("GPU accelerator disabled")
			}

		case 'u':
			if err := cli.CheckForUpdates(); err != nil {
				fmt.Fprintf(os.Stderr, "update check error: %v\n", err)
			}

		case 'h':
			usage()

		case 'q':
			_ = gpuaccel.Cleanup()
			fmt.Println("Exiting...")
			return

		default:
			// ignore other keys
		}
	}
}

func runCommand(sess *paletteops.Session) {
	var spec paletteops.CommandSpec
	if name, err := cli.SelectCommandWithFzf(paletteops.Commands); err == nil && name != "" {
		found, ok := paletteops.ByName(name)
		if !ok {
			fmt.Printf("unknown command: %s\n", name)
			return
		}
		spec = found
	} else {
		fmt.Println("Command selection:")
		for i, c := range paletteops.Commands {
			fmt.Printf("  %d) %s - %s\n", i+1, c.Name, c.Description)
		}
		selection, _ := cli.PromptLine("Enter number or command name (leave empty to cancel): ")
		if selection == "" {
			fmt.Println("selection cancelled")
			return
		}

		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 1 || idx > len(paletteops.Commands) {
				fmt.Println("invalid selection")
				return
			}
			spec = paletteops.Commands[idx-1]
		} else {
			found, ok := paletteops.ByName(selection)
			if !ok {
				fmt.Printf("unknown command: %s\n", selection)
				return
			}
			spec = found
		}
	}

	fmt.Printf("\n%s\n%s\n\n", spec.Usage, spec.Description)
	args := make([]string, len(spec.Args))
	for i, a := range spec.Args {
		label := a.Name
		if !a.Required {
			label = fmt.Sprintf("%s (default %s)", a.Name, a.Default)
		}
		val, _ := cli.PromptLine(fmt.Sprintf("%s (%s): ", label, a.Type))
		args[i] = val
	}

	result, err := paletteops.Dispatch(sess, spec.Name, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "command error: %v\n", err)
		return
	}
	fmt.Println(result.String())
	previewSession(sess)
}

func mustPromptDefault(prompt, def string) string {
	val, _ := cli.PromptLine(prompt)
	val = strings.TrimSpace(val)
	if val == "" {
		return def
	}
	return val
}
