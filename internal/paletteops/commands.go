// Package paletteops is the authoritative registry of palette-engine
// commands: a CommandSpec/ArgSpec pair per command so the CLI can
// describe, prompt for, and dispatch each one uniformly.
package paletteops

import "github.com/Fepozopo/clrq/internal/colorquant"

// ArgSpec describes a single argument for a command, for help/validation
// UI rather than machine-enforced typing.
type ArgSpec struct {
	Name        string
	Type        string // "int", "float", "string", "path"
	Required    bool
	Default     string
	Description string
}

// CommandSpec defines a single palette-engine command and its arguments.
type CommandSpec struct {
	Name        string
	Args        []ArgSpec
	Usage       string
	Description string
}

// Commands is the authoritative list of commands implemented by the
// palette-quantization engine. Keep synchronized with Dispatch below.
var Commands = []CommandSpec{
	{
		Name: "kmeans_cluster",
		Args: []ArgSpec{
			{"k", "int", true, "", "number of clusters"},
			{"maxIter", "int", false, "100", "maximum Lloyd iterations"},
			{"threshold", "float", false, "0.5", "convergence threshold (max centroid movement, RGB units)"},
			{"seed", "int", false, "42", "PRNG seed (0 is replaced with 42)"},
		},
		Usage:       "kmeans_cluster <k> [maxIter] [threshold] [seed]",
		Description: "K-Means++ seeded clustering of the current sample into k centroids.",
	},
	{
		Name: "dbscan_cluster",
		Args: []ArgSpec{
			{"eps", "float", true, "", "neighborhood radius in RGB units"},
			{"minPts", "int", true, "", "minimum neighbors to seed a cluster"},
		},
		Usage:       "dbscan_cluster <eps> <minPts>",
		Description: "Grid-accelerated density clustering of the current sample.",
	},
	{
		Name: "estimate_eps",
		Args: []ArgSpec{
			{"minPts", "int", true, "", "minimum neighbors; the k-distance uses k = max(1, minPts-1)"},
			{"sampleSize", "int", false, "500", "number of points to sample for the k-distance estimate"},
			{"seed", "int", false, "42", "PRNG seed"},
		},
		Usage:       "estimate_eps <minPts> [sampleSize] [seed]",
		Description: "k-distance elbow estimate of a usable DBSCAN eps for the current sample.",
	},
	{
		Name: "hybrid_cluster",
		Args: []ArgSpec{
			{"k", "int", true, "", "number of final clusters"},
			{"blockSize", "int", false, "2000", "points per DBSCAN block"},
			{"eps", "float", false, "0", "block eps; 0 estimates it automatically"},
			{"minPts", "int", false, "4", "minimum neighbors per block"},
			{"maxIter", "int", false, "100", "maximum Lloyd iterations for the final pass"},
			{"threshold", "float", false, "0.5", "convergence threshold"},
			{"seed", "int", false, "42", "PRNG seed"},
		},
		Usage:       "hybrid_cluster <k> [blockSize] [eps] [minPts] [maxIter] [threshold] [seed]",
		Description: "Block-DBSCAN + final K-Means hybrid clustering, for sample sizes DBSCAN alone would choke on.",
	},
	{
		Name: "resynthesize_image",
		Args: []ArgSpec{
			{"quality", "int", false, "90", "accepted but ignored by the remap; JPEG quality is chosen when saving"},
		},
		Usage:       "resynthesize_image [quality]",
		Description: "Remap the loaded image to the source palette, preserving each pixel's residual offset.",
	},
	{
		Name: "posterize_image",
		Args: []ArgSpec{
			{"quality", "int", false, "90", "accepted but ignored by the remap; JPEG quality is chosen when saving"},
		},
		Usage:       "posterize_image [quality]",
		Description: "Remap the loaded image to the source palette exactly, discarding the residual.",
	},
}

// ByName returns the spec for name, or ok=false if unknown.
func ByName(name string) (CommandSpec, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}

// clusteringResult is the value Dispatch returns for the clustering
// commands; the CLI layer formats it for display.
type clusteringResult struct {
	Centroids  []colorquant.Point
	Labels     []int32
	Iterations int
	EpsUsed    float32
}
