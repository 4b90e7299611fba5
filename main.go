// cortex is a colored, linked de Bruijn graph toolkit for genome
// assembly and variant calling, modeled on McCortex.
//
// See DESIGN.md and SPEC_FULL.md for the toolkit's design; run any
// subcommand with no arguments for its own flag usage.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/cortex/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: build, clean, thread, links, bubbles, breakpoints, calls2vcf, vcfcov, reads")
	fmt.Fprint(os.Stderr, cmd.BuildHelp)
	fmt.Fprint(os.Stderr, cmd.CleanHelp)
	fmt.Fprint(os.Stderr, cmd.ThreadHelp)
	fmt.Fprint(os.Stderr, cmd.LinksHelp)
	fmt.Fprint(os.Stderr, cmd.BubblesHelp)
	fmt.Fprint(os.Stderr, cmd.BreakpointsHelp)
	fmt.Fprint(os.Stderr, cmd.Calls2VCFHelp)
	fmt.Fprint(os.Stderr, cmd.VCFCovHelp)
	fmt.Fprint(os.Stderr, cmd.ReadsHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = cmd.Build()
	case "clean":
		err = cmd.Clean()
	case "thread":
		err = cmd.Thread()
	case "links":
		err = cmd.Links()
	case "bubbles":
		err = cmd.Bubbles()
	case "breakpoints":
		err = cmd.Breakpoints()
	case "calls2vcf":
		err = cmd.Calls2VCF()
	case "vcfcov":
		err = cmd.VCFCov()
	case "reads":
		err = cmd.Reads()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
