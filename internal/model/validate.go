package model

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// ValidationError lists every structural problem found in a package.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", services.ErrMalformedPackage, strings.Join(e.Problems, "; "))
}

// Unwrap ties validation failures to services.ErrMalformedPackage.
func (e *ValidationError) Unwrap() error {
	return services.ErrMalformedPackage
}

// Lookup resolves an id outside the package, typically against entities
// already committed to the archive.
type Lookup func(id string) (EntityType, bool)

// Validate checks the package in isolation. See ValidateWith.
func (p *Package) Validate() error {
	return p.ValidateWith(nil)
}

// ValidateWith checks that every entity has a unique non-empty id and that
// every relationship field resolves, either within the package or through
// external, to an entity of the expected type.
func (p *Package) ValidateWith(external Lookup) error {
	v := &validator{types: make(map[string]EntityType, p.Len()), external: external}

	for _, e := range p.Entities() {
		id := e.EntityID()
		if strings.TrimSpace(id) == "" {
			v.addf("%s without id", e.EntityType())
			continue
		}
		if existing, dup := v.types[id]; dup {
			v.addf("duplicate id %q (%s and %s)", id, existing, e.EntityType())
			continue
		}
		v.types[id] = e.EntityType()
	}

	for _, c := range p.Collections {
		if c.Parent != "" {
			v.expect(c.ID, "parent", c.Parent, TypeCollection)
		}
		v.expectAll(c.ID, "metadata", c.MetadataRefs, TypeFile)
	}
	for _, d := range p.DeliverableUnits {
		v.expectAll(d.ID, "parent", d.Parents, TypeDeliverableUnit)
		v.expectAll(d.ID, "collection", d.Collections, TypeCollection)
		v.expectAll(d.ID, "metadata", d.MetadataRefs, TypeFile)
	}
	for _, m := range p.Manifestations {
		if m.DeliverableUnit == "" {
			v.addf("manifestation %q has no deliverable unit", m.ID)
		} else {
			v.expect(m.ID, "deliverable unit", m.DeliverableUnit, TypeDeliverableUnit)
		}
		for _, mf := range m.Files {
			v.expect(m.ID, "file", mf.FileRef, TypeFile)
			if err := checkRelativePath(NormalizePath(mf.Path)); err != nil {
				v.addf("manifestation %q file %q: %v", m.ID, mf.FileRef, err)
			}
		}
		v.expectAll(m.ID, "metadata", m.MetadataRefs, TypeFile)
	}
	for _, f := range p.Files {
		v.expectAll(f.ID, "metadata", f.MetadataRefs, TypeFile)
		if f.Extant && strings.TrimSpace(f.Source) == "" {
			v.addf("file %q is extant but has no source", f.ID)
		}
	}
	for _, e := range p.Events {
		if strings.TrimSpace(e.Type) == "" {
			v.addf("event %q has no type", e.ID)
		}
		for _, target := range e.targets {
			v.expect(e.ID, "target", target, "")
		}
		v.expectAll(e.ID, "metadata", e.MetadataRefs, TypeFile)
	}

	if len(v.problems) > 0 {
		return &ValidationError{Problems: v.problems}
	}
	return nil
}

type validator struct {
	types    map[string]EntityType
	external Lookup
	problems []string
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) resolve(id string) (EntityType, bool) {
	if t, ok := v.types[id]; ok {
		return t, true
	}
	if v.external != nil {
		return v.external(id)
	}
	return "", false
}

// expect records a problem unless ref resolves; an empty want accepts any type.
func (v *validator) expect(owner, field, ref string, want EntityType) {
	got, ok := v.resolve(ref)
	if !ok {
		v.addf("%q %s reference %q is dangling", owner, field, ref)
		return
	}
	if want != "" && got != want {
		v.addf("%q %s reference %q is a %s, want %s", owner, field, ref, got, want)
	}
}

func (v *validator) expectAll(owner, field string, refs []string, want EntityType) {
	for _, ref := range refs {
		v.expect(owner, field, ref, want)
	}
}

// NormalizePath returns the NFC, slash-separated, cleaned form of a
// manifestation file path.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = norm.NFC.String(strings.ReplaceAll(p, "\\", "/"))
	return path.Clean(p)
}

func checkRelativePath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return fmt.Errorf("empty path")
	case path.IsAbs(p):
		return fmt.Errorf("absolute path %q", p)
	case p == ".." || strings.HasPrefix(p, "../"):
		return fmt.Errorf("path %q escapes the manifestation", p)
	}
	return nil
}

// Normalize rewrites manifestation file paths into canonical form.
func (p *Package) Normalize() {
	for i := range p.Manifestations {
		for j := range p.Manifestations[i].Files {
			mf := &p.Manifestations[i].Files[j]
			mf.Path = NormalizePath(mf.Path)
		}
	}
}
