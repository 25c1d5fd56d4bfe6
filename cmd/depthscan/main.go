// Package main provides the entry point for the depthscan CLI.
//
// depthscan crawls web applications breadth-first, one depth layer at a
// time, and runs passive detectors, active probes and trained classifiers
// against every page it reaches.
//
// Usage:
//
//	depthscan scan https://shop.example.com
//	depthscan scan --list seeds.txt --depth 3
//
// See --help for all available options.
package main

func main() {
	Execute()
}
