package model

type ProductType string

const (
	ProductTypeSingle ProductType = "single" // maps to exactly one program
	ProductTypeBundle ProductType = "bundle" // maps to several programs
)

// Product is a read model of the external catalog. The engine never writes
// products; it only resolves which programs a purchase grants access to.
type Product struct {
	ID         string
	Type       ProductType
	ProgramIDs []string
}
