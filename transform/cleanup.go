package transform

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/relloyd/bronze/components"
	"github.com/relloyd/bronze/logger"
	"github.com/sirupsen/logrus"
)

// WithSignalCancel returns a copy of ctx that is cancelled when the process receives CTRL-C or SIGTERM.
func WithSignalCancel(ctx context.Context, log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancelFunc := context.WithCancel(ctx)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case x := <-c: // wait for interrupt...
			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Println() // add return char for a clean CLI look n feel.
			}
			log.Info("Caught ", x.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return ctx, cancelFunc
}

// NewPanicHandler creates a func that components defer to recover from failures.
// The recovered value is converted to an error and reported on rc.
func NewPanicHandler(log logger.Logger, rc *RunCloser) components.PanicHandlerFunc {
	return func() {
		if r := recover(); r != nil { // if there was a panic...
			err := panicToError(r)
			log.Debug("Recovered from step failure: ", err)
			rc.Fail(err)
		}
	}
}

// panicToError extracts the message from a recovered value.
// logger.Panic() panics with a *logrus.Entry.
func panicToError(r interface{}) error {
	switch x := r.(type) {
	case *logrus.Entry:
		return errors.New(x.Message)
	case error:
		return x
	case string:
		return errors.New(x)
	default:
		return fmt.Errorf("%v", x)
	}
}
