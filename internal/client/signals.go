package client

import (
	"os"
	"os/signal"
	"syscall"
)

type interrupter interface {
	Interrupt()
}

// notifyInterrupts relays SIGINT to target until the returned stop is called.
func notifyInterrupts(target interrupter) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	halt := relayInterrupts(sigCh, target)
	return func() {
		signal.Stop(sigCh)
		halt()
	}
}

// relayInterrupts calls target.Interrupt once per value on sigCh. The returned
// stop closes sigCh and returns only after the relay goroutine has exited, so
// no Interrupt call can follow it.
func relayInterrupts(sigCh chan os.Signal, target interrupter) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sigCh {
			target.Interrupt()
		}
	}()
	return func() {
		close(sigCh)
		<-done
	}
}
