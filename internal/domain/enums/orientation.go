package enums

type Orientation string

const (
	OrientationHetero Orientation = "hetero"
	OrientationHomo   Orientation = "homo"
	OrientationBi     Orientation = "bi"
	OrientationOther  Orientation = "other"
)
