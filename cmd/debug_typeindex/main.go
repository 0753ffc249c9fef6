package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"asset-merger/core/typeindex"
)

// Prints the declarations the type indexer extracts from each file argument.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_typeindex FILE...")
	}

	parser := typeindex.NewParser()
	for _, path := range os.Args[1:] {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("=== %s ===\n", path)
		if strings.EqualFold(filepath.Ext(path), ".shader") {
			name, ok, err := parser.ParseShader(path, src)
			if err != nil {
				log.Fatal(err)
			}
			if ok {
				fmt.Printf("  shader %q\n", name)
			} else {
				fmt.Println("  ⚠️  No shader name found")
			}
			continue
		}

		decls, err := parser.ParseSource(path, src)
		if err != nil {
			log.Fatal(err)
		}
		for _, d := range decls {
			marker := ""
			if d.Partial {
				marker = " (partial)"
			}
			fmt.Printf("  %s%s\n", d.Name, marker)
		}
		fmt.Printf("Total declarations: %d\n", len(decls))
	}
}
