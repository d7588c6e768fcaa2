// Package route parses browse paths into a closed set of route kinds,
// walking the hierarchy shape declared for each department.
package route

import (
	"errors"
	"fmt"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
)

// ErrTooDeep is returned for paths below the last layer of a department.
var ErrTooDeep = errors.New("path is deeper than the department hierarchy")

// Route is one of Home, Department, Stage or Documents.
type Route interface {
	// Path returns the canonical path of the route.
	Path() string
	route()
}

// Home lists the departments.
type Home struct{}

// Department lists the first layer below a department.
type Department struct {
	Name string
}

// Stage is an intermediate layer such as a level or a semester.
type Stage struct {
	Department string
	// Trail holds the segments below the department, placeholder form kept.
	Trail []string
	// Kind is the layer this stage sits on; Next is the layer of its children.
	Kind policy.LevelKind
	Next policy.LevelKind
}

// Documents is the last layer, whose children are files.
type Documents struct {
	Department string
	Trail      []string
	Kind       policy.LevelKind
}

func (Home) Path() string         { return folderpath.Root }
func (r Department) Path() string { return folderpath.Join([]string{r.Name}) }
func (r Stage) Path() string      { return folderpath.Join(append([]string{r.Department}, r.Trail...)) }
func (r Documents) Path() string  { return folderpath.Join(append([]string{r.Department}, r.Trail...)) }

func (Home) route()       {}
func (Department) route() {}
func (Stage) route()      {}
func (Documents) route()  {}

// Parse maps path onto the shape pol declares for its department.
func Parse(path string, pol *policy.Policy) (Route, error) {
	segments := folderpath.Split(path)
	if len(segments) == 0 {
		return Home{}, nil
	}
	dept := segments[0]
	if len(segments) == 1 {
		return Department{Name: dept}, nil
	}

	shape := policy.DefaultShape
	if pol != nil {
		shape = pol.Shape(dept)
	}
	trail := append([]string(nil), segments[1:]...)
	depth := len(trail)

	switch {
	case depth < len(shape):
		return Stage{Department: dept, Trail: trail, Kind: shape[depth-1], Next: shape[depth]}, nil
	case depth == len(shape):
		return Documents{Department: dept, Trail: trail, Kind: shape[depth-1]}, nil
	default:
		return nil, fmt.Errorf("%w: %q has %d layers below %q", ErrTooDeep, folderpath.Canonical(path), len(shape), dept)
	}
}

// ContentTypeOf returns the listing type a route displays.
func ContentTypeOf(r Route) model.ContentType {
	switch r.(type) {
	case Home, Department, Stage:
		return model.Folders
	case Documents:
		return model.Files
	}
	panic(fmt.Sprintf("route: unhandled route type %T", r))
}
