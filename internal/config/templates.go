package config

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed templates
var templateFS embed.FS

type Template struct {
	Name    string
	Catalog []byte
	World   []byte
}

func LoadTemplate(name string) (*Template, error) {
	catalog, err := fs.ReadFile(templateFS, "templates/"+name+"/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", name, err)
	}
	world, err := fs.ReadFile(templateFS, "templates/"+name+"/world.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", name, err)
	}
	return &Template{Name: name, Catalog: catalog, World: world}, nil
}

func TemplateNames() []string {
	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func ProjectTemplate(project string) string {
	return fmt.Sprintf(`project: %s
version: 1
seed: 1
days: 365

catalog: catalog.yaml
world: world.yaml
sources:
  - ./technologies/
exclude:
  - ./technologies/drafts/

database:
  dsn: sqlite://researchsim.db

neo4j:
  uri: bolt://localhost:7687
  username: neo4j
  password: changeme
  database: neo4j

logging:
  level: info

http:
  addr: 127.0.0.1:8080
`, project)
}
