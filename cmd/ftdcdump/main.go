// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// main.go

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/simagix/mongo-ftdc-core"
	"github.com/simagix/mongo-ftdc-core/ftdcio"
	"github.com/simagix/mongo-ftdc-core/ftdcview"
)

var repo = "simagix/mongo-ftdc-core"
var version = "self-built"

func main() {
	ver := flag.Bool("version", false, "print version number")
	verbose := flag.Bool("v", false, "print one line per decoded sample")
	limit := flag.Int("limit", 0, "print at most N samples per file (0 means all)")
	workers := flag.Int("workers", 0, "max files decoded concurrently (0 means unbounded)")
	flag.Parse()

	if *ver {
		fmt.Printf("%v %v\n", repo, version)
		os.Exit(0)
	}

	filenames := flag.Args()
	if len(filenames) == 0 {
		fmt.Println("Usage: ftdcdump [-v] [-limit N] [-workers N] <metrics-file>...")
		os.Exit(1)
	}

	files, err := ftdc.DecodeFiles(filenames, *workers)
	if err != nil {
		log.Fatal(err)
	}

	for _, f := range files {
		nSamples := 0
		for _, chunk := range f.Chunks {
			nSamples += len(chunk.Samples)
		}
		log.Printf("%s: %d chunks, %d samples\n", f.Name, len(f.Chunks), nSamples)

		printed := 0
		for _, chunk := range f.Chunks {
			fp := ftdcio.Fingerprint([]byte(fmt.Sprintf("%v", chunk.Ref)))
			log.Printf("  chunk fingerprint=%x metrics=%d samples=%d\n", fp, len(chunk.Ref), len(chunk.Samples))
			if !*verbose {
				continue
			}
			for _, s := range chunk.Samples {
				if *limit > 0 && printed >= *limit {
					break
				}
				ss := ftdcview.ServerStatusFromSample(s)
				fmt.Printf("%s connections=%d insert=%d query=%d\n",
					ss.LocalTime.Format("2006-01-02T15:04:05Z"),
					ss.Connections.Current, ss.OpCounters.Insert, ss.OpCounters.Query)
				printed++
			}
		}
	}
}
