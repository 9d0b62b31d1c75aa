package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-quillhtml/internal/fileutil"
)

// fileToConvert represents a single file to process.
type fileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles expands inputs into files to convert.
// Files are taken as given; directories are walked for files with one of
// dir's input extensions. With an output directory, files found in a walked
// directory keep their path relative to it.
func discoverFiles(inputs []string, outDir string, dir direction) ([]fileToConvert, error) {
	var files []fileToConvert

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
		}

		if !info.IsDir() {
			files = append(files, fileToConvert{
				InputPath:  input,
				OutputPath: fileutil.OutputPath(input, outDir, dir.outExt),
			})
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !hasExtension(path, dir.inputExts) {
				return nil
			}
			files = append(files, fileToConvert{
				InputPath:  path,
				OutputPath: resolveOutputPath(path, outDir, input, dir.outExt),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: walking %s: %v", ErrReadInput, input, err)
		}
	}

	return files, nil
}

// resolveOutputPath places path under outDir, mirroring its location
// relative to baseDir. Without outDir the output sits next to the input.
func resolveOutputPath(path, outDir, baseDir, ext string) string {
	if outDir == "" {
		return fileutil.OutputPath(path, "", ext)
	}
	rel, err := filepath.Rel(baseDir, filepath.Dir(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = "."
	}
	return fileutil.OutputPath(path, filepath.Join(outDir, rel), ext)
}

// hasExtension reports whether path ends in one of exts, ignoring case.
func hasExtension(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
