package measure

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestMeasureHasNoProjectDependencies ensures the converter stays a pure,
// leaf package: it must not import anything else from this module, so it
// can be consumed from any layer without cycles.
func TestMeasureHasNoProjectDependencies(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "recipealmanac/pkg/measure")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if strings.HasPrefix(importPath, "recipealmanac/") {
				t.Errorf("forbidden project import in pkg/measure: %s", importPath)
			}
		}
	}
}
