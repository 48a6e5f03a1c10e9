package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"dmriseparate/pkg/config"
	"dmriseparate/pkg/separation"
)

func main() {
	// Parse command line arguments
	input := flag.String("i", "", "Diffusion data (4-D NIfTI volume, e.g. dmri.nii.gz)")
	bvec := flag.String("bvec", "", "Gradient directions (bvecs) text file")
	bval := flag.String("bval", "", "Optional b-values (bvals) text file, used to identify low b-values")
	bvalMin := flag.Float64("bvalmin", 0, "B-value threshold (s/mm2) below which a frame is considered b=0 (default 100)")
	average := flag.Bool("a", true, "Average b=0 and DWI data")
	outDir := flag.String("o", "", "Output folder (default ./)")
	keepTemp := flag.Bool("keep-temp", false, "Keep temporary staging files")
	verbose := flag.Bool("v", true, "Verbose output")
	preview := flag.Bool("preview", false, "Save PNG previews of the separated volumes")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	flag.Parse()

	// Validate inputs
	if *input == "" || *bvec == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration defaults, then let explicitly set flags win
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	params := &separation.Params{
		InputFile:       *input,
		BvecFile:        *bvec,
		BvalFile:        *bval,
		BValueThreshold: cfg.Separation.BValueThreshold,
		Average:         cfg.Separation.Average,
		OutputDir:       cfg.Output.Folder,
		RemoveTempFiles: cfg.Separation.RemoveTempFiles,
		Verbose:         cfg.Output.Verbose,
	}
	if set["bvalmin"] {
		params.BValueThreshold = *bvalMin
	}
	if set["a"] {
		params.Average = *average
	}
	if set["o"] {
		params.OutputDir = *outDir
	}
	if set["keep-temp"] {
		params.RemoveTempFiles = !*keepTemp
	}
	if set["v"] {
		params.Verbose = *verbose
	}
	if *preview || cfg.Output.PreviewFrames {
		params.PreviewDir = params.OutputDir
	}

	fmt.Println("================================")
	fmt.Println("SEPARATE B=0 AND DWI IMAGES FROM A DIFFUSION DATASET")
	fmt.Println("================================")

	// Run the separation pipeline
	separator := separation.NewSeparator(params)
	startTime := time.Now()
	results, err := separator.Process()
	if err != nil {
		log.Fatalf("Separation failed: %v", err)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("\nSeparation completed successfully in %.2f seconds!\n", elapsed.Seconds())
	fmt.Printf("  b=0 frames: %d -> %s\n", results.NumB0, results.B0File)
	if results.DWIFile != "" {
		fmt.Printf("  DWI frames: %d -> %s\n", results.NumDWI, results.DWIFile)
	} else {
		fmt.Printf("  DWI frames: none\n")
	}
	if results.B0MeanFile != "" {
		fmt.Printf("  b=0 mean:   %s\n", results.B0MeanFile)
	}
	if results.DWIMeanFile != "" {
		fmt.Printf("  DWI mean:   %s\n", results.DWIMeanFile)
	}
}
