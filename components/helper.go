package components

import (
	"github.com/relloyd/bronze/stream"
)

func safeSend(rec stream.Record,
	outputChan chan stream.Record,
	controlChan chan ControlAction,
	controlFunc func(c ControlAction),
) (recordSentOK bool) {
	select {
	case outputChan <- rec: // if we can send the record to the outputChan...
		return true // signal that data was sent OK.
	case c := <-controlChan: // if we were asked to shutdown...
		controlFunc(c) // handle the control action...
		return false   // signal that the caller should shutdown.
	}
}

func sendNilControlResponse(c ControlAction) {
	c.ResponseChan <- nil // respond that we're done with a nil error.
}

// newFileRecord builds the record that writers produce for each file they create.
func newFileRecord(fileName string, rowCount int64) stream.Record {
	rec := stream.NewRecord()
	rec.SetData(Defaults.ChanField4FileName, fileName)
	rec.SetData(Defaults.ChanField4RowCount, rowCount)
	return rec
}
