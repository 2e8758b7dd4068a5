package mfhw

import (
	"runtime"
	"sync"
)

// EvaluateConcurrent returns the same curve as Evaluate, inverting the time
// points over nwrkrs goroutines (GOMAXPROCS when nwrkrs < 1).
func EvaluateConcurrent(v Variant, p Parameters, t []float64, highPrecision bool, nwrkrs int) Curve {
	f := newForward(v, p, t, highPrecision)
	nt := len(f.tD)
	if nwrkrs < 1 {
		nwrkrs = runtime.GOMAXPROCS(0)
	}
	if nwrkrs > nt {
		nwrkrs = nt
	}

	pD := make([]float64, nt)
	k := make(chan int)
	var wg sync.WaitGroup
	wg.Add(nwrkrs)
	for i := 0; i < nwrkrs; i++ {
		go func() {
			for j := range k {
				pD[j] = f.point(j)
			}
			wg.Done()
		}()
	}
	for j := 0; j < nt; j++ {
		k <- j
	}
	close(k)
	wg.Wait()

	return f.curve(pD)
}
