// bench-sort measures sorting throughput and heap behavior over a
// synthetic Java corpus held in memory.
//
// Usage:
//
//	go run ./scripts/bench-sort --files 2000 --imports 40 --rounds 3 \
//	  --profile-dir docs/profiles/sort
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
)

func main() {
	fileCount := flag.Int("files", 2000, "Number of synthetic Java files")
	importCount := flag.Int("imports", 40, "Import declarations per file")
	bodyLines := flag.Int("body-lines", 200, "Filler lines per class body")
	rounds := flag.Int("rounds", 3, "Sort passes over the corpus")
	workers := flag.Int("workers", 0, "Parallel engines (0 = GOMAXPROCS)")
	profileDir := flag.String("profile-dir", "", "Directory to write pprof profiles")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	if *workers <= 0 {
		*workers = runtime.GOMAXPROCS(0)
	}

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	if *cpuProfile {
		if *profileDir == "" {
			log.Fatal("--cpu-profile requires --profile-dir")
		}

		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	type heapSnapshot struct {
		label     string
		heapInUse uint64
		heapSys   uint64
		heapIdle  uint64
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{
			label:     label,
			heapInUse: m.HeapInuse,
			heapSys:   m.HeapSys,
			heapIdle:  m.HeapIdle,
		})
		log.Printf("  [heap] %-30s inuse=%6.1f MB  sys=%6.1f MB  idle=%6.1f MB",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6, float64(m.HeapIdle)/1e6)
	}

	writeHeapProfile := func(name string) {
		if *profileDir == "" {
			return
		}

		runtime.GC()
		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	takeSnapshot("before_generation")

	corpus := buildCorpus(*fileCount, *importCount, *bodyLines)

	var corpusBytes int64
	for _, content := range corpus {
		corpusBytes += int64(len(content))
	}

	log.Printf("generated %d files, %.1f MB total", len(corpus), float64(corpusBytes)/1e6)
	takeSnapshot("after_generation")
	writeHeapProfile("heap_after_generation.prof")

	engines := buildEngines(*workers)

	type roundStats struct {
		round        int
		rewritten    int
		duration     time.Duration
		allocPerFile uint64
	}

	var results []roundStats

	ctx := context.Background()

	for round := 1; round <= *rounds; round++ {
		var before runtime.MemStats
		runtime.ReadMemStats(&before)

		start := time.Now()
		rewritten := sortCorpus(ctx, engines, corpus)
		elapsed := time.Since(start)

		var after runtime.MemStats
		runtime.ReadMemStats(&after)

		allocPerFile := (after.TotalAlloc - before.TotalAlloc) / uint64(len(corpus))

		// Every pass after the first runs on rewritten output, so a
		// second rewrite means the sort is not a fixed point.
		if round > 1 && rewritten != 0 {
			log.Fatalf("round %d: %d files changed after a prior sort", round, rewritten)
		}

		log.Printf("round %d: %d/%d rewritten in %s", round, rewritten, len(corpus), elapsed)
		takeSnapshot(fmt.Sprintf("round_%d_end", round))
		writeHeapProfile(fmt.Sprintf("heap_round_%d.prof", round))

		results = append(results, roundStats{
			round:        round,
			rewritten:    rewritten,
			duration:     elapsed,
			allocPerFile: allocPerFile,
		})
	}

	fmt.Println()
	fmt.Println("=== Heap Memory Timeline ===")
	fmt.Printf("%-32s %10s %10s %10s\n", "Phase", "InUse(MB)", "Sys(MB)", "Idle(MB)")
	fmt.Println("--------------------------------+----------+----------+----------")

	for _, s := range snapshots {
		fmt.Printf("%-32s %10.1f %10.1f %10.1f\n",
			s.label, float64(s.heapInUse)/1e6, float64(s.heapSys)/1e6, float64(s.heapIdle)/1e6)
	}

	fmt.Println()
	fmt.Println("=== Sort Throughput ===")
	fmt.Printf("%5s %9s %11s %12s %9s %8s %15s\n",
		"Round", "Files", "Rewritten", "Duration", "Files/s", "MB/s", "KB alloc/file")

	for _, r := range results {
		secs := r.duration.Seconds()
		fmt.Printf("%5d %9d %11d %12s %9.0f %8.1f %15.1f\n",
			r.round, len(corpus), r.rewritten, r.duration.Round(time.Millisecond),
			float64(len(corpus))/secs, float64(corpusBytes)/1e6/secs,
			float64(r.allocPerFile)/1e3)
	}
}

// importRoots seeds the synthetic declarations with paths that land in
// every default group plus the unmatched tail.
var importRoots = []string{"java.util", "javax.annotation", "org.example", "com.acme", "net.bench"}

// buildCorpus generates deterministic compilation units with shuffled
// import blocks, so the first pass rewrites every file.
func buildCorpus(files, imports, bodyLines int) [][]byte {
	corpus := make([][]byte, files)

	for idx := range files {
		corpus[idx] = buildFile(idx, imports, bodyLines)
	}

	return corpus
}

func buildFile(idx, imports, bodyLines int) []byte {
	paths := make([]string, imports)
	for k := range imports {
		root := importRoots[k%len(importRoots)]
		paths[k] = fmt.Sprintf("%s.gen%d.Type%d", root, k, k)
	}

	rng := rand.New(rand.NewPCG(uint64(idx), 42))
	rng.Shuffle(len(paths), func(a, b int) {
		paths[a], paths[b] = paths[b], paths[a]
	})

	var b strings.Builder

	fmt.Fprintf(&b, "package com.bench.p%d;\n\n", idx%97)

	for _, path := range paths {
		fmt.Fprintf(&b, "import %s;\n", path)
	}

	fmt.Fprintf(&b, "\npublic class Bench%d {\n", idx)

	for line := range bodyLines {
		fmt.Fprintf(&b, "    private int field%d;\n", line)
	}

	b.WriteString("}\n")

	return []byte(b.String())
}

// buildEngines creates one engine per worker. Engines hold a tree-sitter
// parser, which is not safe for concurrent use.
func buildEngines(count int) []*impsort.Engine {
	quiet := slog.New(slog.DiscardHandler)

	engines := make([]*impsort.Engine, 0, count)

	for range count {
		parser, parserErr := javasyntax.NewParser()
		if parserErr != nil {
			log.Fatalf("init java parser: %v", parserErr)
		}

		cfg := impsort.Config{Grouping: impsort.DefaultGrouping()}

		engine, engineErr := impsort.New(cfg, parser, quiet)
		if engineErr != nil {
			log.Fatalf("create engine: %v", engineErr)
		}

		engines = append(engines, engine)
	}

	return engines
}

// sortCorpus rewrites corpus in place and returns how many files changed.
// Worker w owns the indexes where idx%len(engines) == w, so writes stay
// disjoint.
func sortCorpus(ctx context.Context, engines []*impsort.Engine, corpus [][]byte) int {
	var wg sync.WaitGroup

	changed := make([]int, len(engines))

	wg.Add(len(engines))

	for w, engine := range engines {
		go func() {
			defer wg.Done()

			for idx := w; idx < len(corpus); idx += len(engines) {
				name := fmt.Sprintf("Bench%d.java", idx)

				result, err := engine.Sort(ctx, name, corpus[idx])
				if err != nil {
					log.Fatalf("sort %s: %v", name, err)
				}

				if !result.IsSorted() {
					corpus[idx] = result.Rewritten()
					changed[w]++
				}
			}
		}()
	}

	wg.Wait()

	total := 0
	for _, n := range changed {
		total += n
	}

	return total
}
