package paletteops

import (
	"fmt"
	"strconv"

	"github.com/Fepozopo/clrq/internal/colorquant"
	"github.com/Fepozopo/clrq/internal/gpuaccel"
	"github.com/Fepozopo/clrq/internal/imgio"
)

// Session holds the state a palette-engine REPL command operates on: a
// sample drawn from the loaded image (for the clustering commands) and
// the loaded image's full pixel buffer plus the palette pair produced by
// a prior clustering step (for the remap commands).
type Session struct {
	Path          string
	Width, Height int
	Pixels        []colorquant.PackedPixel
	Sample        []colorquant.Point
	Meta          imgio.RasterMeta

	// SourcePalette is the palette clustering last produced; TargetPalette
	// is the palette a remap command should measure distance against
	// (defaults to SourcePalette when unset, i.e. posterize/resynthesize
	// against the engine's own clustering result).
	SourcePalette []colorquant.Point
	TargetPalette []colorquant.Point

	// UseGPU routes resynthesize_image/posterize_image through
	// internal/gpuaccel instead of the CPU path when a device context has
	// already been initialized by the caller.
	UseGPU bool
}

const gpuStreamingThreshold = 4096 * 4096 // pixels; beyond this, stream tiles instead of one round trip.

// LoadImage decodes path into the session via imgio and draws a sample
// for the clustering commands to operate on.
func LoadImage(path string, sampleSize int, seed uint64) (*Session, error) {
	w, h, pixels, meta, err := imgio.OpenRaster(path)
	if err != nil {
		return nil, err
	}
	return &Session{
		Path:   path,
		Width:  w,
		Height: h,
		Pixels: pixels,
		Sample: colorquant.ReservoirSamplePacked(pixels, sampleSize, seed),
		Meta:   meta,
	}, nil
}

// Dispatch runs the named command against s with textual args in the
// order Commands[i].Args declares them.
func Dispatch(s *Session, name string, args []string) (fmt.Stringer, error) {
	switch name {
	case "kmeans_cluster":
		return dispatchKMeans(s, args)
	case "dbscan_cluster":
		return dispatchDBSCAN(s, args)
	case "estimate_eps":
		return dispatchEstimateEps(s, args)
	case "hybrid_cluster":
		return dispatchHybrid(s, args)
	case "resynthesize_image":
		return dispatchRemap(s, args, true)
	case "posterize_image":
		return dispatchRemap(s, args, false)
	default:
		return nil, fmt.Errorf("paletteops: unknown command %q", name)
	}
}

func argAt(args []string, i int, def string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return def
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

type clusterReport struct {
	clusteringResult
	Kind string
}

func (r clusterReport) String() string {
	return fmt.Sprintf("%s: %d centroids, %d iterations (eps=%.3f)", r.Kind, len(r.Centroids), r.Iterations, r.EpsUsed)
}

func dispatchKMeans(s *Session, args []string) (fmt.Stringer, error) {
	k, err := parseInt(argAt(args, 0, ""))
	if err != nil {
		return nil, fmt.Errorf("kmeans_cluster: invalid k: %w", err)
	}
	maxIter, _ := parseInt(argAt(args, 1, "100"))
	threshold, _ := parseFloat(argAt(args, 2, "0.5"))
	seed, _ := parseInt(argAt(args, 3, "42"))

	res, err := colorquant.KMeansCluster(s.Sample, k, maxIter, threshold, uint64(seed))
	if err != nil {
		return nil, err
	}
	s.SourcePalette = res.Centroids
	return clusterReport{clusteringResult{Centroids: res.Centroids, Labels: res.Labels, Iterations: res.Iterations}, "kmeans"}, nil
}

func dispatchDBSCAN(s *Session, args []string) (fmt.Stringer, error) {
	eps, err := parseFloat(argAt(args, 0, ""))
	if err != nil {
		return nil, fmt.Errorf("dbscan_cluster: invalid eps: %w", err)
	}
	minPts, err := parseInt(argAt(args, 1, ""))
	if err != nil {
		return nil, fmt.Errorf("dbscan_cluster: invalid minPts: %w", err)
	}

	res, err := colorquant.DBSCANCluster(s.Sample, eps, minPts)
	if err != nil {
		return nil, err
	}
	centroids := colorquant.DBSCANCentroids(s.Sample, res.Labels, res.NumClusters)
	s.SourcePalette = centroids
	return clusterReport{clusteringResult{Centroids: centroids, Labels: res.Labels, EpsUsed: eps}, "dbscan"}, nil
}

func dispatchEstimateEps(s *Session, args []string) (fmt.Stringer, error) {
	minPts, err := parseInt(argAt(args, 0, ""))
	if err != nil {
		return nil, fmt.Errorf("estimate_eps: invalid minPts: %w", err)
	}
	sampleSize, _ := parseInt(argAt(args, 1, "500"))
	seed, _ := parseInt(argAt(args, 2, "42"))

	eps, err := colorquant.EstimateEps(s.Sample, minPts, sampleSize, uint64(seed))
	if err != nil {
		return nil, err
	}
	return epsReport{eps}, nil
}

type epsReport struct{ Eps float32 }

func (r epsReport) String() string { return fmt.Sprintf("estimated eps: %.3f", r.Eps) }

func dispatchHybrid(s *Session, args []string) (fmt.Stringer, error) {
	k, err := parseInt(argAt(args, 0, ""))
	if err != nil {
		return nil, fmt.Errorf("hybrid_cluster: invalid k: %w", err)
	}
	blockSize, _ := parseInt(argAt(args, 1, "2000"))
	eps, _ := parseFloat(argAt(args, 2, "0"))
	minPts, _ := parseInt(argAt(args, 3, "4"))
	maxIter, _ := parseInt(argAt(args, 4, "100"))
	threshold, _ := parseFloat(argAt(args, 5, "0.5"))
	seed, _ := parseInt(argAt(args, 6, "42"))

	if eps <= 0 {
		eps = colorquant.EstimateHybridEps(s.Sample, blockSize, minPts, uint64(seed))
	}

	res, err := colorquant.HybridCluster(s.Sample, colorquant.HybridParams{
		K:         k,
		BlockSize: blockSize,
		Eps:       eps,
		MinPts:    minPts,
		MaxIter:   maxIter,
		Threshold: threshold,
		Seed:      uint64(seed),
	})
	if err != nil {
		return nil, err
	}
	s.SourcePalette = res.Centroids
	return clusterReport{clusteringResult{Centroids: res.Centroids, Iterations: res.Iterations, EpsUsed: eps}, "hybrid"}, nil
}

type remapReport struct {
	Kind  string
	Count int
}

func (r remapReport) String() string { return fmt.Sprintf("%s: remapped %d pixels", r.Kind, r.Count) }

func dispatchRemap(s *Session, args []string, resynth bool) (fmt.Stringer, error) {
	if len(s.SourcePalette) == 0 {
		return nil, fmt.Errorf("remap: no palette available; run a clustering command first")
	}
	target := s.TargetPalette
	if len(target) == 0 {
		target = s.SourcePalette
	}

	var (
		out []colorquant.PackedPixel
		err error
	)
	switch {
	case s.UseGPU && len(s.Pixels) > gpuStreamingThreshold:
		out, err = gpuaccel.RemapStreaming(s.Pixels, s.Width, s.Height, target, s.SourcePalette, resynth)
	case s.UseGPU:
		out, err = gpuaccel.RemapSinglePass(s.Pixels, s.Width, s.Height, target, s.SourcePalette, resynth)
	case resynth:
		out, err = colorquant.ResynthesizeImage(s.Pixels, s.Width, s.Height, target, s.SourcePalette)
	default:
		out, err = colorquant.PosterizeImage(s.Pixels, s.Width, s.Height, target, s.SourcePalette)
	}
	if err != nil {
		return nil, err
	}
	s.Pixels = out

	kind := "posterize"
	if resynth {
		kind = "resynthesize"
	}
	return remapReport{kind, len(out)}, nil
}

// SaveImage writes the session's current pixel buffer to path via imgio,
// round-tripping whatever JPEG metadata LoadImage captured.
func SaveImage(s *Session, path string, quality int) error {
	return imgio.SaveRaster(path, s.Width, s.Height, s.Pixels, quality, s.Meta)
}
