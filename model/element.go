package model

// ElementClass is the declared capability tag of a simulated network element.
// Controllers match policies against this tag rather than inspecting the
// concrete element type.
type ElementClass string

const (
	ClassORU   ElementClass = "O-RU"
	ClassODU   ElementClass = "O-DU"
	ClassOCUCP ElementClass = "O-CU-CP"
	ClassOCUUP ElementClass = "O-CU-UP"
	ClassUE    ElementClass = "UE"
)

// KnownElementClass reports whether c is one of the declared element classes.
func KnownElementClass(c ElementClass) bool {
	switch c {
	case ClassORU, ClassODU, ClassOCUCP, ClassOCUUP, ClassUE:
		return true
	}
	return false
}
