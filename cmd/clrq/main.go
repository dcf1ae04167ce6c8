// Command clrq is the palette quantization and remap engine's
// interactive CLI.
package main

import "github.com/Fepozopo/clrq/internal/cliapp"

func main() {
	cliapp.Run()
}
