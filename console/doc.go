// Package console provides blocking line reads on top of an asynchronous
// line source.
//
// Lines are produced by a background reader and announced as callbacks on a
// Loop. A read registers interest in the next line, then drains the Loop on the
// calling goroutine until the callback has delivered it:
//
//	c := console.New(os.Stdin, os.Stdout)
//	defer c.Close()
//
//	line, err := c.ReadLine(ctx) // returns only once a full line is available
//
// The caller never observes a pending state. Only one read may be outstanding;
// a second concurrent ReadLine fails with errors.ErrBusy. A closed input fails
// with errors.ErrEndOfInput. There is no timeout: a read waits until a line
// arrives, the input closes, or ctx is canceled.
package console
