package model

//go:generate go run github.com/dmarkham/enumer -type SourceKind -trimprefix Source -text -yaml -json -output sourcekind.gen.go

// SourceKind identifies a device-management platform. Its string form is
// stored in Device.Source.
type SourceKind int

const (
	SourceIntune SourceKind = iota
	SourceKandji
)
