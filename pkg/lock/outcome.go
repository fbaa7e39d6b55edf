package lock

import (
	"errors"
	"fmt"

	"github.com/huanfeng/mia-cli/pkg/models"
)

// ErrAborted is returned when the operator declines to continue past warnings
var ErrAborted = errors.New("aborted: unresolved applications")

// WarningKind distinguishes why an application was not resolved
type WarningKind int

const (
	// AppNotFound means no repository in the search order lists the app id
	AppNotFound WarningKind = iota
	// PackageNotFound means no repository has a package with the pinned code
	PackageNotFound
)

// Warning reports a desired application that could not be resolved
type Warning struct {
	Index int // position in the desired app list
	Name  string
	Kind  WarningKind
	Code  int
}

func (w Warning) String() string {
	if w.Kind == PackageNotFound {
		return fmt.Sprintf("no package: %s:%d", w.Name, w.Code)
	}
	return fmt.Sprintf("no such app: %s", w.Name)
}

// Outcome is the result of a resolution run
type Outcome struct {
	Apps     []models.ResolvedApp
	Warnings []Warning
}

// HasWarnings reports whether any desired application was left unresolved
func (o *Outcome) HasWarnings() bool {
	return len(o.Warnings) > 0
}

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(question string, defaultValue bool) (bool, error)
}

// Gate requires confirmation before continuing past warnings
func (o *Outcome) Gate(c Confirmer) error {
	if !o.HasWarnings() {
		return nil
	}

	ok, err := c.Confirm("Warnings found! Continue?", false)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d warning(s)", ErrAborted, len(o.Warnings))
	}
	return nil
}
