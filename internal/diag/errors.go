// Package diag defines the fatal, position-annotated errors raised while
// resolving dependencies and generating bridge code.
//
// Every failure here is misuse of the programming model by the consuming
// application. None of them is retried: the whole pass aborts and neither
// generated artifact is written.
package diag

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by *Error. Match them with errors.Is.
var (
	// ErrUnresolvedDependency is returned when no concrete class satisfies a
	// constructor parameter.
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrAmbiguousDependency is returned when more than one concrete class
	// satisfies a constructor parameter.
	ErrAmbiguousDependency = errors.New("ambiguous dependency")

	// ErrCyclicDependency is returned when a type is reached again while it
	// is still being constructed.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnrepresentableType is returned when a callback signature uses a
	// type with no native mapping.
	ErrUnrepresentableType = errors.New("unrepresentable native type")

	// ErrMultipleConfigRoots is returned when more than one class is marked
	// as the configuration root.
	ErrMultipleConfigRoots = errors.New("multiple configuration roots")

	// ErrNoPublicConstructor is returned when a type only declares
	// non-public constructors.
	ErrNoPublicConstructor = errors.New("no public constructor")
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindUnresolved        Kind = "unresolved"
	KindAmbiguous         Kind = "ambiguous"
	KindCyclic            Kind = "cyclic"
	KindUnrepresentable   Kind = "unrepresentable"
	KindMultipleConfig    Kind = "multiple_config_roots"
	KindNoPublicConstruct Kind = "no_public_constructor"
)

// Position locates a declaration in the scanned source.
type Position struct {
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// IsValid reports whether the position names a file.
func (p Position) IsValid() bool {
	return p.File != ""
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	switch {
	case p.Line <= 0:
		return p.File
	case p.Column <= 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Error is a fatal diagnostic.
type Error struct {
	Kind     Kind
	Pos      Position
	Type     string // offending type
	Consumer string // type whose constructor or method needed Type
	Msg      string
	err      error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Consumer != "" {
		msg = fmt.Sprintf("%s (required by %s)", msg, e.Consumer)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: error: %s", e.Pos, msg)
	}
	return "error: " + msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// Unresolved reports a dependency with no implementation.
func Unresolved(pos Position, typ, consumer string) *Error {
	return &Error{
		Kind:     KindUnresolved,
		Pos:      pos,
		Type:     typ,
		Consumer: consumer,
		Msg:      fmt.Sprintf("unable to find a class for dependency %s", typ),
		err:      ErrUnresolvedDependency,
	}
}

// Ambiguous reports a dependency with several implementations.
func Ambiguous(pos Position, typ, consumer string, candidates []string) *Error {
	msg := fmt.Sprintf("multiple dependencies found for %s", typ)
	if len(candidates) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, candidates)
	}
	return &Error{
		Kind:     KindAmbiguous,
		Pos:      pos,
		Type:     typ,
		Consumer: consumer,
		Msg:      msg,
		err:      ErrAmbiguousDependency,
	}
}

// Cyclic reports a type reached again while in progress.
func Cyclic(pos Position, typ string) *Error {
	return &Error{
		Kind: KindCyclic,
		Pos:  pos,
		Type: typ,
		Msg:  fmt.Sprintf("cyclic dependency detected while constructing %s", typ),
		err:  ErrCyclicDependency,
	}
}

// Unrepresentable reports a callback type with no native mapping.
func Unrepresentable(pos Position, typ, method string) *Error {
	return &Error{
		Kind:     KindUnrepresentable,
		Pos:      pos,
		Type:     typ,
		Consumer: method,
		Msg:      fmt.Sprintf("type %s has no native representation", typ),
		err:      ErrUnrepresentableType,
	}
}

// MultipleConfigRoots reports more than one configuration root class.
func MultipleConfigRoots(pos Position, roots []string) *Error {
	return &Error{
		Kind: KindMultipleConfig,
		Pos:  pos,
		Msg:  fmt.Sprintf("multiple configuration root classes found: %v", roots),
		err:  ErrMultipleConfigRoots,
	}
}

// NoPublicConstructor reports a type that cannot be instantiated.
func NoPublicConstructor(pos Position, typ string) *Error {
	return &Error{
		Kind: KindNoPublicConstruct,
		Pos:  pos,
		Type: typ,
		Msg:  fmt.Sprintf("type %s has no public constructor", typ),
		err:  ErrNoPublicConstructor,
	}
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
