//go:build tools

// cover-merger folds the *.cover profiles written by the unit and integration
// runs into one coverage.out. A block listed by several profiles is kept once,
// with the highest count seen.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const outFilename = "coverage.out"

func main() {
	files, err := filepath.Glob("*.cover")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to find .cover files: %v\n", err)
		os.Exit(1)
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "warning: no .cover files found")
		return
	}

	mode := ""
	blocks := make(map[string]int)

	for _, file := range files {
		fileMode, err := readProfile(file, blocks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", file, err)
			continue
		}

		if mode == "" {
			mode = fileMode
		} else if fileMode != mode {
			fmt.Fprintf(os.Stderr, "%s uses mode %s, expected %s\n", file, fileMode, mode)
			os.Exit(1)
		}
	}

	if err := writeProfile(mode, blocks); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", outFilename, err)
		os.Exit(1)
	}
}

// readProfile adds the blocks of one profile to blocks and returns its mode.
// Each line is "file:start,end statements count".
func readProfile(path string, blocks map[string]int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	mode := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m, ok := strings.CutPrefix(line, "mode: "); ok {
			mode = m
			continue
		}

		i := strings.LastIndexByte(line, ' ')
		if i < 0 {
			return "", fmt.Errorf("malformed line %q", line)
		}

		count, err := strconv.Atoi(line[i+1:])
		if err != nil {
			return "", fmt.Errorf("malformed count in %q: %w", line, err)
		}

		block := line[:i]
		if prev, seen := blocks[block]; !seen || count > prev {
			blocks[block] = count
		}
	}

	return mode, scanner.Err()
}

func writeProfile(mode string, blocks map[string]int) error {
	if mode == "" {
		mode = "set"
	}

	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out, err := os.Create(outFilename)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "mode: %s\n", mode)

	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, blocks[k])
	}

	return w.Flush()
}
