package feed

import "fmt"

// ObserverFault describes a panic raised inside an observer during fan-out.
type ObserverFault struct {
	Subscription uint64
	Sequence     uint64
	Value        any
}

func (f *ObserverFault) Error() string {
	return fmt.Sprintf("observer %d panicked on tick %d: %v", f.Subscription, f.Sequence, f.Value)
}

// Unwrap exposes the panic value when it was an error.
func (f *ObserverFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}
