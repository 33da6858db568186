package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"researchsim/internal/config"
	"researchsim/internal/parser"
	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type Result struct {
	TechnologiesUpserted int
	TechnologiesReused   int
	TechnologiesRemoved  int
	FilesSkipped         int
	Errors               []error
	Catalog              *config.CatalogFile
}

type Options struct {
	Full bool
}

// Run compiles every markdown technology under the configured sources into a
// catalog. Files whose hash matches the stored one are not re-parsed; their
// stored definition is reused instead.
func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetSourceHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	roots := make([]string, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		roots = append(roots, cfg.Path(src))
	}
	excludes := make([]string, 0, len(cfg.Exclude))
	for _, ex := range cfg.Exclude {
		excludes = append(excludes, cfg.Path(ex))
	}

	files, err := walkMarkdownFiles(roots, excludes)
	if err != nil {
		return nil, fmt.Errorf("walking sources: %w", err)
	}

	result := &Result{}
	parsed := make(map[string]tech.Definition)
	unchanged := make(map[string]bool)

	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if !options.Full {
			if existing, ok := existingHashes[path]; ok && existing == hash {
				unchanged[path] = true
				continue
			}
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingCategory) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		input := store.TechnologyInput{
			Definition: doc.Definition,
			SourceFile: path,
			SourceHash: hash,
		}
		if err := db.UpsertTechnology(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
			continue
		}
		result.TechnologiesUpserted++
		parsed[path] = doc.Definition
	}

	deleted, err := db.RemoveStaleTechnologies(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale technologies: %w", err))
	}
	result.TechnologiesRemoved = int(deleted)

	if len(unchanged) > 0 {
		records, err := db.ListTechnologies(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing stored technologies: %w", err)
		}
		for _, record := range records {
			if unchanged[record.SourceFile] {
				parsed[record.SourceFile] = record.Definition
				result.TechnologiesReused++
			}
		}
	}

	defs := make([]tech.Definition, 0, len(parsed))
	seen := make(map[string]string)
	for _, path := range files {
		def, ok := parsed[path]
		if !ok {
			continue
		}
		key := strings.ToLower(def.ID)
		if first, dup := seen[key]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("duplicate technology id %s in %s (first defined in %s)", def.ID, path, first))
			continue
		}
		seen[key] = path
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return result, fmt.Errorf("no technologies found in sources")
	}

	catalog, err := config.NewCatalogFile(defs)
	if err != nil {
		return result, fmt.Errorf("compiling catalog: %w", err)
	}
	result.Catalog = catalog
	return result, nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
