// Command vroomctl indexes a delimited file and prints its shape, or dumps
// its rows, from the command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shapestone/vroom"
)

func main() {
	var (
		delimiter = flag.String("delimiter", "", "field delimiter; empty means auto-detect")
		hasHeader = flag.Bool("header", true, "treat row 0 as a header")
		cacheDir  = flag.String("cache-dir", "", "directory to read/write the index cache in; empty means alongside the source file")
		dump      = flag.Bool("dump", false, "print every row instead of just the summary")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: vroomctl [flags] file\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vroomctl: %v\n", err)
		os.Exit(1)
	}

	opts := vroom.DefaultOptions()
	opts.HasHeader = *hasHeader
	if *delimiter != "" {
		opts.Dialect = vroom.Dialect{Delimiter: (*delimiter)[0], Quote: '"', DoubleQuote: true}
	}

	cache := vroom.NewCache(*cacheDir)
	idx, err := cache.Load(path)
	if err != nil {
		res, err := vroom.Parse(data, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vroomctl: %v\n", err)
			os.Exit(1)
		}
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "vroomctl: %v\n", e)
		}
		if err := cache.Save(path, res.Index); err != nil {
			fmt.Fprintf(os.Stderr, "vroomctl: caching index: %v\n", err)
		}
		printSummary(path, res.Dialect, res.Index, res.HeaderRow)
		if *dump {
			dumpRows(data, res.Index, res.Dialect)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "vroomctl: %s: using cached index\n", path)
	printSummary(path, vroom.DefaultDialect(), idx, nil)
	if *dump {
		dumpRows(data, idx, vroom.DefaultDialect())
	}
}

func printSummary(path string, dialect vroom.Dialect, idx *vroom.ParseIndex, header []string) {
	fmt.Printf("%s: %d rows, %d columns, delimiter=%q\n", path, idx.Rows(), idx.Columns(), dialect.Delimiter)
	if header != nil {
		fmt.Printf("header: %v\n", header)
	}
}

func dumpRows(data []byte, idx *vroom.ParseIndex, dialect vroom.Dialect) {
	ext, err := idx.Extractor(data, dialect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vroomctl: %v\n", err)
		return
	}
	it := ext.NewRowIterator()
	for it.Next() {
		row, err := it.Strings()
		if err != nil {
			fmt.Fprintf(os.Stderr, "vroomctl: %v\n", err)
			continue
		}
		fmt.Println(row)
	}
}
