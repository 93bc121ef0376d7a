package components

// Default field names are used by components to know the names of input and output fields.
var Defaults = struct {
	ChanField4FileName string // the default map key that contains a produced file name, used by writers and the S3 copier.
	ChanField4RowCount string // the default map key that contains the number of data rows in the produced file.
}{
	ChanField4FileName: "#DataFileName",
	ChanField4RowCount: "#RowCount",
}
